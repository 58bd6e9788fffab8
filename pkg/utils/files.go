package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DeleteDir removes a directory and all its contents
func DeleteDir(path string) error {
	return os.RemoveAll(path)
}

// MakeTempDir creates a uniquely named directory under base, so concurrent
// requests never share scratch space.
func MakeTempDir(base, prefix string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, prefix+"-"+uuid.NewString())
	if err := MakeDir(dir); err != nil {
		return "", fmt.Errorf("failed to create temp dir under %s: %w", base, err)
	}
	return dir, nil
}
