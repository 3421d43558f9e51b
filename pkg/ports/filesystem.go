package ports

import "io"

// FileSystem abstracts file system operations.
type FileSystem interface {
	// Create creates or truncates a file for writing, creating parent directories.
	Create(path string) (io.WriteCloser, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// Rename moves a file, replacing the destination.
	Rename(from, to string) error

	// Remove deletes a file or empty directory.
	Remove(path string) error
}
