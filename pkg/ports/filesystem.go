package ports

// FileSystem abstracts the local file system operations the dispatcher
// and plugins need, so tests can substitute an in-memory implementation.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating parent directories as needed.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// IsDir reports whether the path names a directory.
	IsDir(path string) (bool, error)

	// ReadDir lists the file names (not full paths) in a directory,
	// sorted lexically, excluding subdirectories.
	ReadDir(path string) ([]string, error)

	// Remove deletes a file or empty directory.
	Remove(path string) error
}
