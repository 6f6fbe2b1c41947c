package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	viewkit "github.com/goliatone/go-viewkit"
	"github.com/goliatone/go-viewkit/pkg/config"
)

func newResolveCommand(opts *options) *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "resolve <template>",
		Short: "Print the file a template name resolves to",
		Long: `Resolve a template name the way the renderer does: the explicit table
first, then discovery under the module's view directory.

Examples:
  viewkit resolve layout/layout --module App -c view.yaml
  viewkit resolve app::index/index -c view.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := opts.newKit(cmd)
			if err != nil {
				return err
			}
			file, err := kit.Resolver().Resolve(args[0], module)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&module, "module", "m", "", "module to resolve the template in")
	return cmd
}

func newRenderCommand(opts *options) *cobra.Command {
	var (
		treePath string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a view tree described in YAML",
		Long: `Render a view tree file and print the result, or write it to --output.

A tree file describes the root model and its children:

  template: layout/layout
  module: App
  variables: {title: Home}
  children:
    - template: index/index
      module: App`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := opts.newKit(cmd)
			if err != nil {
				return err
			}
			tree, err := config.LoadTree(treePath)
			if err != nil {
				return err
			}
			out, err := kit.Render(cmd.Context(), tree)
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "View written to %s\n", output)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&treePath, "tree", "t", viewkit.SkeletonTree, "tree file to render")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter view.yaml, tree.yaml and templates",
		Long: `Write the starter project into dir (default: the current directory).
Existing files are never overwritten.

Examples:
  viewkit init site
  viewkit render -c site/view.yaml -t site/tree.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := viewkit.WriteSkeleton(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Skeleton written to %s\n", dir)
			return nil
		},
	}
}
