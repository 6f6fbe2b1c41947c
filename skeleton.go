package viewkit

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed skeleton
var embeddedSkeleton embed.FS

// Skeleton files, relative to the root of Skeleton().
const (
	SkeletonConfig = "view.yaml"
	SkeletonTree   = "tree.yaml"
)

// Skeleton exposes the starter project: a view.yaml registering the "App"
// module, a tree.yaml describing a page, and the layout, pongo2 and
// Markdown templates they reference.
func Skeleton() fs.FS {
	sub, err := fs.Sub(embeddedSkeleton, "skeleton")
	if err != nil {
		return embeddedSkeleton
	}
	return sub
}

// WriteSkeleton copies the starter project into dir. Existing files are
// never overwritten.
func WriteSkeleton(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("viewkit: create %q: %w", dir, err)
	}
	if err := os.CopyFS(dir, Skeleton()); err != nil {
		return fmt.Errorf("viewkit: write skeleton: %w", err)
	}
	return nil
}
