package errors

import (
	"fmt"
)

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// NotADirectory represents when a path that must name a directory points at
// something else.
type NotADirectory struct {
	Path string
}

func (err NotADirectory) Error() string {
	return fmt.Sprintf("%q is not a directory", err.Path)
}
