package batch

import "errors"

var (
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrBatchNotFound     = errors.New("batch not found")
	ErrImageNotFound     = errors.New("image not found")
	ErrStorageError      = errors.New("storage error")
	ErrDatabaseError     = errors.New("database error")
	ErrMessageQueueError = errors.New("message queue error")
)
