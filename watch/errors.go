package watch

import "errors"

var (
	// ErrIngesterRequired is returned when a Syncer is created without an ingester.
	ErrIngesterRequired = errors.New("ingester required")

	// ErrWatcherStopped is returned when Watch is called after Stop.
	ErrWatcherStopped = errors.New("watcher stopped")
)
