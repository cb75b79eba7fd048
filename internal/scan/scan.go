// Package scan lists files below a directory. Classifying them is the
// caller's job.
package scan

import (
	"os"
	"path/filepath"
)

// Files returns every non-directory entry below root, depth-first in
// directory-listing order. Symlinks are reported as files and not followed.
func Files(root string) ([]string, error) {
	var files []string
	if err := walk(root, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func walk(dir string, files *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := walk(full, files); err != nil {
				return err
			}
			continue
		}
		*files = append(*files, full)
	}
	return nil
}

// Dirs returns the immediate subdirectories of root, by name.
func Dirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs, nil
}

// Top returns the files directly inside root, skipping subdirectories.
func Top(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(root, entry.Name()))
		}
	}
	return files, nil
}
