package concat

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ErrCategoryMissing is returned when a category directory does not exist.
var ErrCategoryMissing = errors.New("category directory missing")

// Category is one of the fixed fragment groupings of the output.
type Category struct {
	Name string // Header text
	Dir  string // Directory holding the category's fragments
}

// Fragment is one source document. It is immutable once read.
type Fragment struct {
	Name     string // File name, used for ordering
	Category string
	Source   []byte
}

// LoadFragments reads every regular file in dir with the given extension.
// Fragments come back sorted by name and fully read.
func LoadFragments(fsys fs.FS, dir string, cat Category, ext string) ([]Fragment, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryMissing, cat.Dir)
		}
		return nil, fmt.Errorf("read category %s: %w", cat.Name, err)
	}

	var frags []Fragment
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(path.Ext(e.Name()), ext) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read fragment %s: %w", e.Name(), err)
		}
		frags = append(frags, Fragment{
			Name:     e.Name(),
			Category: cat.Name,
			Source:   data,
		})
	}
	sortFragments(frags)
	return frags, nil
}
