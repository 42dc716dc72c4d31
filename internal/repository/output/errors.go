package output

import "errors"

var (
	ErrInvalidLocation = errors.New("invalid output location")
	ErrStorageError    = errors.New("storage error")
	ErrFileNotFound    = errors.New("file not found")
)
