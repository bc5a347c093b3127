package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gork-labs/uniongen/internal/generator"
)

// Sink receives the generated files of a completed cycle.
type Sink interface {
	Deliver(ctx context.Context, art generator.Artifact) error
}

// MemorySink keeps delivered sources in memory, keyed by emission key.
type MemorySink struct {
	mu         sync.Mutex
	files      map[string][]byte
	deliveries int
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// Deliver stores a copy of the artifact source under its key.
func (m *MemorySink) Deliver(_ context.Context, art generator.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[art.Key] = bytes.Clone(art.Source)
	m.deliveries++
	return nil
}

// Get returns the last source delivered under key.
func (m *MemorySink) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.files[key]
	return src, ok
}

// Keys lists the delivered keys in sorted order.
func (m *MemorySink) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Deliveries counts Deliver calls, including repeated keys.
func (m *MemorySink) Deliveries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveries
}

// FileSink writes artifacts to disk at their paths. When Dir is set every
// file is written there instead of next to its declaration.
type FileSink struct {
	Dir    string
	Logger *zap.Logger
}

func (f *FileSink) Deliver(_ context.Context, art generator.Artifact) error {
	path := art.Path
	if f.Dir != "" {
		path = filepath.Join(f.Dir, filepath.Base(art.Path))
	}

	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Leave unchanged files alone so the timestamps of up-to-date output
	// don't trigger rebuilds or watch cycles.
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, art.Source) {
		log.Debug("unchanged", zap.String("path", path))
		return nil
	}

	if err := writeFile(path, art.Source); err != nil {
		return errors.Wrapf(err, "write %s", art.Key)
	}
	log.Info("wrote", zap.String("path", path), zap.String("key", art.Key))
	return nil
}

// writeFile writes content to a file, creating directories if necessary.
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}
	return os.WriteFile(path, content, 0o644)
}

// WriterSink prints every artifact to W preceded by a header line naming
// its path. Used for dry runs.
type WriterSink struct {
	mu sync.Mutex
	W  io.Writer
}

func (w *WriterSink) Deliver(_ context.Context, art generator.Artifact) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.W, "// ---- %s\n", art.Path); err != nil {
		return err
	}
	_, err := w.W.Write(art.Source)
	return err
}
