// scan.go - Verzeichnis-Scan
//
// Enthaelt:
// - Files: Unterstuetzte Modell-Dateien eines Verzeichnisses, gecacht
// - Scan: Parallele Klassifikation und Eintrag ins Register
package index

import (
	"context"
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgua/sdbx/envconfig"
	"github.com/mgua/sdbx/metadata"
	"github.com/mgua/sdbx/tuner"
)

// Files gibt alle unterstuetzten Modell-Dateien unter dir in lexikalischer
// Reihenfolge zurueck. Eine vollstaendig gelesene Liste wird gecacht, bis
// Scan oder Refresh sie verwirft.
func (idx *Index) Files(dir string) iter.Seq[string] {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	return idx.files.Seq(tuner.Key{Path: abs, Function: "files"}, func() iter.Seq[string] {
		return walk(abs)
	})
}

// Refresh verwirft alle gecachten Verzeichnis-Listen
func (idx *Index) Refresh() {
	idx.files.Clear()
}

func walk(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("skipping path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() || !metadata.Supported(path) {
				return nil
			}

			if !yield(path) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// Scan klassifiziert alle unterstuetzten Dateien unter dir als kind und
// traegt sie ein. Dateien, die sich nicht lesen lassen, werden protokolliert
// und uebersprungen. Die Eintraege kommen in Datei-Reihenfolge zurueck.
func (idx *Index) Scan(ctx context.Context, dir string, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}

	idx.Refresh()

	var paths []string
	for path := range idx.Files(dir) {
		paths = append(paths, path)
	}

	entries := make([]*Entry, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(int(envconfig.ScanParallel()), 1))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			tag, result, err := idx.classifier.Classify(path)
			if err != nil {
				slog.Warn("skipping model", "path", path, "error", err)
				return nil
			}

			e := Entry{
				Path:        path,
				Kind:        kind,
				Format:      tag.Format,
				SizeBytes:   tag.SizeBytes,
				Dtype:       tag.Dtype,
				TensorCount: tag.TensorCount,
				Families:    result.Best,
				UpdatedAt:   time.Now().UTC(),
			}
			if err := idx.Put(ctx, e); err != nil {
				return err
			}

			entries[i] = &e
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, *e)
		}
	}

	slog.Info("scanned models", "dir", dir, "kind", kind, "found", len(paths), "indexed", len(out))
	return out, nil
}
