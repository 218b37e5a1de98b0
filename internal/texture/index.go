package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Index maps lowercase file stems to image paths under a directory.
// Formats with alpha take priority for the same stem.
type Index struct {
	entries map[string]string
}

// BuildIndex walks dir for supported images.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !Supported(path) {
			return nil
		}
		stem := stemOf(path)
		existing, ok := idx.entries[stem]
		if !ok || rank(path) > rank(existing) {
			idx.entries[stem] = path
		}
		return nil
	})
	return idx
}

func rank(path string) int {
	return alphaRank[strings.ToLower(filepath.Ext(path))]
}

func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the file for name, matched by stem regardless of
// directory or extension.
func (idx *Index) ResolvePath(name string) (string, bool) {
	if idx == nil {
		return "", false
	}
	path, ok := idx.entries[stemOf(name)]
	return path, ok
}

// Len returns the number of indexed images.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}
