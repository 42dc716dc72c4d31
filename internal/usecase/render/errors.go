package render

import (
	"errors"

	"image-labeler/internal/usecase/sequence"
)

var (
	ErrBackgroundUnreadable = errors.New("background image unreadable")
	ErrOutputUnwritable     = errors.New("output location unwritable")
	ErrSaveFailed           = errors.New("save failed")
	ErrNoValues             = errors.New("no values to render")
	ErrCanvasTooLarge       = errors.New("canvas too large")
	ErrTooManyValues        = sequence.ErrTooManyValues
	ErrRunPanicked          = errors.New("run aborted")
)
