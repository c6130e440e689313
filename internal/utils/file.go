// Package utils holds file lookup helpers.
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMissingResource is returned when a required input file cannot be found
var ErrMissingResource = errors.New("missing resource")

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	switch GetFileExtension(filename) {
	case "jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp":
		return true
	}
	return false
}

// FindFiles recursively lists files under dir whose base name is name,
// in lexicographic path order
func FindFiles(dir, name string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FindFile returns the first file named name under dir
func FindFile(dir, name string) (string, error) {
	files, err := FindFiles(dir, name)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no %s under %s", ErrMissingResource, name, dir)
	}
	return files[0], nil
}

// FindRecordFiles lists files named name inside any directory called
// recordID under dir, in lexicographic path order
func FindRecordFiles(dir, recordID, name string) ([]string, error) {
	var roots []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != dir && d.Name() == recordID {
			roots = append(roots, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var files []string
	for _, root := range roots {
		found, err := FindFiles(root, name)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	sort.Strings(files)
	return files, nil
}

// OutputFilename returns <outputDir>/<sanitized id>.<format>
func OutputFilename(outputDir, id, format string) string {
	return filepath.Join(outputDir, SanitizeFilename(id)+"."+strings.ToLower(format))
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	// Replace invalid characters with underscores
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading/trailing spaces and dots
	result = strings.Trim(result, " .")

	return result
}
