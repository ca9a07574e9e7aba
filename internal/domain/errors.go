package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrEmptyBatch          = errors.New("batch contains no documents")
	ErrInvalidStrategy     = errors.New("unknown partition strategy")
	ErrBatchNotRunnable    = errors.New("batch is not in a runnable state")
	ErrNoResults           = errors.New("no results received")
	ErrJobNotCancellable   = errors.New("match job is not in a cancellable state")
)
