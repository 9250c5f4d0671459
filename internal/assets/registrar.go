// Package assets declares the frontend template and stylesheet files as
// explicit dependencies of the generated bundle object.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/mitsuqtt/buildident/internal/buildenv"
	"github.com/mitsuqtt/buildident/internal/log"
	"github.com/mitsuqtt/buildident/internal/models"
)

const (
	// DefaultRoot is the frontend asset root, relative to the project.
	DefaultRoot = "src/frontend"
	// DefaultBundleObject is the compiled unit that embeds the assets.
	DefaultBundleObject = "$BUILD_DIR/src/frontend/templates.cpp.o"
)

// walkDir is swapped in tests to simulate unreadable directories.
var walkDir = filepath.WalkDir

// DefaultExtensions are the template and stylesheet suffixes.
var DefaultExtensions = []string{".mst", ".css"}

// Registrar walks the asset root and declares one edge per matching file.
type Registrar struct {
	Root         string
	Extensions   []string
	BundleObject string
}

// Matches reports whether path has one of the registrar's extensions.
// Matching is case sensitive.
func (r Registrar) Matches(path string) bool {
	return slices.Contains(r.Extensions, filepath.Ext(path))
}

// Scan returns the absolute paths of every matching file under the root,
// in lexical walk order. A missing root yields no files; unreadable
// entries below the root are skipped with a warning.
func (r Registrar) Scan() ([]string, error) {
	root, err := filepath.Abs(r.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve asset root %q: %w", r.Root, err)
	}

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		log.Warn("asset root does not exist", "root", root)
		return nil, nil
	}

	var files []string
	err = walkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("skipping unreadable asset path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !r.Matches(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan asset root %q: %w", root, err)
	}
	return files, nil
}

// Register declares every matching file as a dependency of the bundle
// object. It only adds edges; the returned slice holds one edge per file.
func (r Registrar) Register(env *buildenv.Env) ([]models.DependencyEdge, error) {
	files, err := r.Scan()
	if err != nil {
		return nil, err
	}

	target := env.Subst(r.BundleObject)
	edges := make([]models.DependencyEdge, 0, len(files))
	added := 0
	for _, file := range files {
		if env.Depends(target, file) {
			added++
		}
		edges = append(edges, models.DependencyEdge{Target: target, Source: file})
	}
	log.Info("registered asset dependencies", "target", target, "files", len(files), "new", added)
	return edges, nil
}
