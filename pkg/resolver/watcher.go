package resolver

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher evicts discovered templates when their files are removed or
// renamed, so the next lookup searches the module root again instead of
// failing with BrokenRegistrationError. It is meant for development servers.
type Watcher struct {
	resolver *Resolver
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	onChange []func(file string)
}

// NewWatcher creates a watcher for r's module roots.
func NewWatcher(r *Resolver, logger zerolog.Logger) *Watcher {
	return &Watcher{
		resolver: r,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// OnChange registers fn to be called with the path of every written, removed
// or renamed file, e.g. to drop compiled templates held by an engine. Call it
// before Start.
func (w *Watcher) OnChange(fn func(file string)) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

// Start watches every registered module root, including sub directories, and
// processes events in the background until Stop is called.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("resolver: create watcher: %w", err)
	}
	w.watcher = watcher

	for module, root := range w.resolver.ModulesMap() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			return watcher.Add(path)
		})
		if err != nil {
			watcher.Close()
			return fmt.Errorf("resolver: watch module %q: %w", module, err)
		}
		w.logger.Debug().Str("module", module).Str("dir", root).Msg("watching module templates")
	}

	go w.loop()
	return nil
}

// Stop ends the event loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("template watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.mu.Lock()
		hooks := w.onChange
		w.mu.Unlock()
		for _, fn := range hooks {
			fn(event.Name)
		}
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		if event.Op&fsnotify.Create != 0 {
			// New sub directories need their own watch.
			_ = w.watcher.Add(event.Name)
		}
		return
	}
	if n := w.resolver.Forget(event.Name); n > 0 {
		w.logger.Info().Str("file", event.Name).Int("entries", n).Msg("template removed, cache entries evicted")
	}
}
