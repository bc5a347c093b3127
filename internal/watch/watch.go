// Package watch reruns build cycles when declaration sources change.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gork-labs/uniongen/internal/frontend"
)

// Cycle runs one build. It must return promptly once ctx is cancelled.
type Cycle func(ctx context.Context)

// Watcher watches directories and triggers a debounced cycle per burst of
// relevant changes.
type Watcher struct {
	fs        *fsnotify.Watcher
	debounce  time.Duration
	recursive bool
	log       *zap.Logger
}

// New watches dirs, and their subdirectories when recursive is set.
func New(dirs []string, recursive bool, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	w := &Watcher{fs: fw, debounce: debounce, recursive: recursive, log: log}
	for _, dir := range dirs {
		if err := w.add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(root string) error {
	if !w.recursive {
		return errors.Wrapf(w.fs.Add(root), "watch %s", root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && frontend.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return errors.Wrapf(w.fs.Add(path), "watch %s", path)
	})
}

// Relevant reports whether a change to path can affect generated output:
// Go sources, schema files and templates, but not generated files.
func Relevant(path string) bool {
	base := filepath.Base(path)
	switch filepath.Ext(base) {
	case ".go":
		return frontend.SourceFile(base)
	case ".yaml", ".yml", ".tmpl":
		return !strings.HasPrefix(base, ".")
	}
	return false
}

// Run calls cycle once, then again after every burst of changes, until ctx
// is done. A change arriving while a cycle runs cancels that cycle; cycles
// never overlap.
func (w *Watcher) Run(ctx context.Context, cycle Cycle) error {
	defer w.fs.Close()

	cancel := context.CancelFunc(func() {})
	var done chan struct{}
	start := func() {
		cctx, c := context.WithCancel(ctx)
		cancel, done = c, make(chan struct{})
		go func(done chan struct{}) {
			defer close(done)
			cycle(cctx)
		}(done)
	}
	stop := func() {
		cancel()
		if done != nil {
			<-done
		}
	}
	defer stop()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	start()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && w.recursive {
				w.addCreatedDir(ev.Name)
			}
			if !Relevant(ev.Name) {
				continue
			}
			w.log.Debug("change", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			cancel()
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			stop()
			w.log.Info("sources changed, regenerating")
			start()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) addCreatedDir(path string) {
	if frontend.SkipDir(filepath.Base(path)) {
		return
	}
	if err := w.add(path); err != nil {
		// Most often a file rather than a directory, or already removed.
		w.log.Debug("not watching", zap.String("path", path), zap.Error(err))
	}
}
