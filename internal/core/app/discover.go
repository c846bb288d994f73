package app

import (
	"io/fs"
	"os"
	"path/filepath"

	"typewalk/internal/core/errors"
)

// Discover lists the files under root selected by the configured include and
// exclude patterns, in lexical order. A root that is a file is returned as is.
func (s *Session) Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "stat root"), errors.CtxPath, root)
	}
	if !info.IsDir() {
		return []string{filepath.Clean(root)}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && s.matcher.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.matcher.Match(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "walk root"), errors.CtxPath, root)
	}
	return files, nil
}
