package scanner

import (
	"io/fs"
	"os"
	"path/filepath"

	"simfinder/logging"
)

// collectFiles lists every regular file below root in lexical order.
// Symlinks to regular files are included; symlinked directories are not
// descended into. Unreadable subtrees are skipped; an unreadable root is an error.
func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.LogWarning("Error accessing path %s: %v", path, err)
			return nil
		}
		switch {
		case d.Type().IsRegular():
			files = append(files, path)
		case d.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(path)
			if err != nil {
				logging.LogWarning("Skipping broken symlink %s: %v", path, err)
			} else if info.Mode().IsRegular() {
				files = append(files, path)
			} else {
				logging.DebugLog("Not following symlink %s", path)
			}
		}
		return nil
	})
	return files, err
}

// relativeKey names a file relative to the scan root, in slash form, so cache
// entries survive extraction into a different temporary directory
func relativeKey(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
