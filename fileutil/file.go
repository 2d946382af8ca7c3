package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolve will resolve a relative file path
func Resolve(filename string) (string, error) {
	if filename == "" {
		return filename, fmt.Errorf("filename was not supplied")
	}
	f, err := filepath.Abs(filename)
	if err != nil {
		return filename, err
	}
	_, err = os.Stat(f)
	return f, err
}

// FileExists returns true if the path components exist
func FileExists(filename ...string) bool {
	fn := filepath.Join(filename...)
	_, err := Resolve(fn)
	return err == nil
}
