package domain

import "errors"

var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrSlotOutOfRange    = errors.New("image slot out of range")
	ErrAuthRequired      = errors.New("authentication required")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
	ErrNoDraft           = errors.New("no draft in progress")
	ErrNotAnImage        = errors.New("file is not an image")
	ErrImageTooLarge     = errors.New("image too large")
)
