// Package home manages the fichemax home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the fichemax home directory.
	DefaultDirName = ".fichemax"

	// PDFDirName is the subdirectory for generated study-sheet PDFs.
	PDFDirName = "pdfs"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the fichemax home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.fichemax).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// PDFDir returns the directory where generated PDFs are kept for the
// /pdfs static route.
func (d *Dir) PDFDir() string {
	return filepath.Join(d.path, PDFDirName)
}

// PDFPath returns the on-disk path for a generated PDF file name.
func (d *Dir) PDFPath(name string) string {
	return filepath.Join(d.PDFDir(), name)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.PDFDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create pdfs directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
