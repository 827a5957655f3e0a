package ingestion

import "errors"

var (
	// ErrSaverRequired is returned when a saver is not provided.
	ErrSaverRequired = errors.New("saver required")

	// ErrUnsupportedFileType is returned when no loader handles a file's extension.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrReplaceUnsupported is returned when replacing existing chunks is requested
	// but the saver cannot delete them.
	ErrReplaceUnsupported = errors.New("saver cannot delete existing documents")

	// ErrFileNameRequired is returned when ingesting text without a file name.
	ErrFileNameRequired = errors.New("file name required")
)
