// Package fileutils writes output files so readers never see a partial one.
package fileutils

import (
	"os"
	"path/filepath"
	"strings"
)

// TempPrefix starts the name of every in-flight temp file. Directory scans
// skip names with this prefix.
const TempPrefix = ".tmp_"

// IsTemp reports whether name is a hidden or in-flight temp file.
func IsTemp(name string) bool {
	return strings.HasPrefix(filepath.Base(name), ".")
}

// WriteAtomicSameDir creates a temp file next to path, hands it to fill,
// syncs it and renames it over path. The temp file is removed on any error.
func WriteAtomicSameDir(path string, fill func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+filepath.Base(path)+"_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
