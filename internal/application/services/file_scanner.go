package services

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// ScanTree walks the folder tree rooted at root and returns every
// regular file as a raw candidate, in deterministic path order. The
// walk itself does not filter; classification and rejection happen in
// Normalize.
func ScanTree(root string) ([]RawFile, error) {
	files := make([]RawFile, 0)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		file := RawFile{Path: path}
		if info, infoErr := d.Info(); infoErr == nil {
			file.SizeBytes = info.Size()
			file.ModifiedAt = info.ModTime()
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
