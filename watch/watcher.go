// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/vecdocs/ingestion"
)

// Op is the kind of change observed for a file.
type Op int

const (
	Created Op = iota
	Modified
	Removed
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Event is a change to a watched file.
type Event struct {
	Path string
	Op   Op
}

// Watcher reports changes to supported files in a directory.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	logger     *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithExtensions limits events to files with these extensions.
// Default is ingestion.SupportedExtensions().
func WithExtensions(extensions ...string) Option {
	return func(w *Watcher) error {
		if len(extensions) == 0 {
			return nil
		}
		w.extensions = make([]string, len(extensions))
		for i, ext := range extensions {
			w.extensions[i] = strings.ToLower(ext)
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWatcher creates a new file watcher.
func NewWatcher(opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:    fw,
		extensions: ingestion.SupportedExtensions(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(w); optErr != nil {
			fw.Close()
			return nil, optErr
		}
	}
	w.logger = w.logger.With("component", "watch")
	return w, nil
}

// Watch starts monitoring dir and emits events until ctx is done or Stop is called.
// Subdirectories are not watched.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil, ErrWatcherStopped
	}

	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}
	w.logger.Info("watching directory", "dir", dir, "extensions", w.extensions)

	events := make(chan Event, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op Op
				switch {
				case event.Has(fsnotify.Create):
					op = Created
				case event.Has(fsnotify.Write):
					op = Modified
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = Removed
				default:
					continue
				}

				select {
				case events <- Event{Path: event.Name, Op: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("watch error", "dir", dir, "err", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher and closes every channel returned by Watch.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}
