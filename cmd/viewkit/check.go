package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	viewkit "github.com/goliatone/go-viewkit"
	"github.com/goliatone/go-viewkit/pkg/config"
	"github.com/goliatone/go-viewkit/pkg/view"
)

type violation struct {
	file     string
	location string
	message  string
}

func newCheckCommand(opts *options) *cobra.Command {
	var trees []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report templates no engine can render",
		Long: `Check walks every module directory and every registered template and
reports files whose extension is not mapped to an engine, registrations
pointing at missing files, and nodes of the given tree files that do not
resolve.

Examples:
  viewkit check -c view.yaml
  viewkit check -c view.yaml --tree tree.yaml --tree admin.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := opts.newKit(cmd)
			if err != nil {
				return err
			}

			violations, err := checkKit(kit)
			if err != nil {
				return err
			}
			for _, path := range trees {
				tree, err := config.LoadTree(path)
				if err != nil {
					return err
				}
				violations = append(violations, checkTree(kit, path, tree, "root")...)
			}

			if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No problems found")
				return nil
			}
			sort.Slice(violations, func(i, j int) bool {
				if violations[i].file == violations[j].file {
					if violations[i].location == violations[j].location {
						return violations[i].message < violations[j].message
					}
					return violations[i].location < violations[j].location
				}
				return violations[i].file < violations[j].file
			})
			for _, v := range violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", v.file, v.location, v.message)
			}
			return fmt.Errorf("%d problem(s) found", len(violations))
		},
	}
	cmd.Flags().StringArrayVarP(&trees, "tree", "t", nil, "tree file whose nodes must resolve (repeatable)")
	return cmd
}

func checkKit(kit *viewkit.Kit) ([]violation, error) {
	extensions := kit.Strategy().Extensions()
	var result []violation

	modules := kit.Resolver().ModulesMap()
	for _, module := range sortedKeys(modules) {
		root := modules[module]
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if v, ok := checkExtension(path, "module "+module, extensions); !ok {
				result = append(result, v)
			}
			return nil
		})
		if errors.Is(err, fs.ErrNotExist) {
			result = append(result, violation{file: root, location: "module " + module, message: "module directory does not exist"})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("walk module %q: %w", module, err)
		}
	}

	templates := kit.Resolver().TemplatesMap()
	for _, name := range sortedKeys(templates) {
		file := templates[name]
		if _, err := os.Stat(file); err != nil {
			result = append(result, violation{file: file, location: "template " + name, message: "registered file does not exist"})
			continue
		}
		if v, ok := checkExtension(file, "template "+name, extensions); !ok {
			result = append(result, v)
		}
	}
	return result, nil
}

func checkExtension(file, location string, extensions map[string]string) (violation, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
	if _, ok := extensions[ext]; ok {
		return violation{}, true
	}
	return violation{
		file:     file,
		location: location,
		message:  fmt.Sprintf("extension %q is not mapped to an engine", ext),
	}, false
}

func checkTree(kit *viewkit.Kit, file string, m *view.Model, location string) []violation {
	var result []violation
	if _, err := kit.Resolver().Session().Resolve(m.Template(), m.Module()); err != nil {
		result = append(result, violation{file: file, location: location, message: err.Error()})
	}
	i := 0
	for child := range m.Children() {
		result = append(result, checkTree(kit, file, child, fmt.Sprintf("%s.children[%d]", location, i))...)
		i++
	}
	return result
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
