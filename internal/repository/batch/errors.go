package batch

import "errors"

var (
	ErrBatchNotFound = errors.New("batch not found")
	ErrImageNotFound = errors.New("derived image not found")
	ErrFileNotFound  = errors.New("file not found")
	ErrStorageError  = errors.New("storage error")
)
