package job

import "errors"

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrInvalidSpec      = errors.New("invalid job spec")
	ErrPreviewNotReady  = errors.New("preview not ready")
	ErrJobFinished      = errors.New("job already finished")
	ErrBackgroundNeeded = errors.New("background image is required")
	ErrInvalidFileName  = errors.New("invalid file name")
	ErrFileNotFound     = errors.New("file not found")
)
