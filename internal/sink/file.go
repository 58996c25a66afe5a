package sink

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/fredo994/coinbase-feed/internal/handler"
	"github.com/fredo994/coinbase-feed/internal/protocol"
)

// FileConfig configures the file sink.
type FileConfig struct {
	Directory     string                 // Output directory, created on Initialize
	Events        []protocol.MessageType // Event types to write (default: ticker, l2update, match)
	BufferSize    int                    // Per-file write buffer in bytes
	FlushInterval time.Duration          // Periodic flush (0 = only on Close)
}

// DefaultFileConfig returns sensible defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Directory:     ".",
		BufferSize:    64 * 1024,
		FlushInterval: time.Second,
	}
}

// WriterMetrics tracks sink activity.
type WriterMetrics struct {
	Writes  int64
	Errors  int64
	Flushes int64
	Files   int
}

// FileWriter appends events as JSON lines to per-topic files named
// <type>_<product_id> inside the output directory.
type FileWriter struct {
	handler.Nop

	cfg    FileConfig
	logger *slog.Logger
	events map[protocol.MessageType]bool

	mu      sync.Mutex
	files   map[string]*topicFile
	metrics WriterMetrics
	closed  bool

	flushTicker *time.Ticker
	done        chan struct{}
	wg          sync.WaitGroup
}

type topicFile struct {
	f *os.File
	w *bufio.Writer
}

// NewFileWriter creates a new FileWriter.
func NewFileWriter(cfg FileConfig, logger *slog.Logger) (*FileWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	events, err := eventSet(cfg.Events)
	if err != nil {
		return nil, err
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultFileConfig().BufferSize
	}

	return &FileWriter{
		cfg:    cfg,
		logger: logger.With("component", "file_sink"),
		events: events,
		files:  make(map[string]*topicFile),
		done:   make(chan struct{}),
	}, nil
}

// Initialize creates the output directory and starts the flush loop.
func (w *FileWriter) Initialize() error {
	if err := os.MkdirAll(w.cfg.Directory, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if w.cfg.FlushInterval > 0 {
		w.flushTicker = time.NewTicker(w.cfg.FlushInterval)
		w.wg.Add(1)
		go w.flushLoop()
	}

	w.logger.Info("file sink started",
		"directory", w.cfg.Directory,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

func (w *FileWriter) OnTicker(ev *protocol.TickerEvent) error {
	return w.write(ev, ev.ProductID)
}

func (w *FileWriter) OnSnapshot(ev *protocol.SnapshotEvent) error {
	return w.write(ev, ev.ProductID)
}

func (w *FileWriter) OnL2Update(ev *protocol.L2UpdateEvent) error {
	return w.write(ev, ev.ProductID)
}

func (w *FileWriter) OnMatch(ev *protocol.MatchEvent) error {
	return w.write(ev, ev.ProductID)
}

func (w *FileWriter) OnLastMatch(ev *protocol.LastMatchEvent) error {
	return w.write(ev, ev.ProductID)
}

func (w *FileWriter) OnHeartbeat(ev *protocol.HeartbeatEvent) error {
	return w.write(ev, ev.ProductID)
}

func (w *FileWriter) OnDone(ev *protocol.DoneEvent) error {
	return w.write(ev, ev.ProductID)
}

// Close stops the flush loop, then flushes and closes every file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.flushTicker != nil {
		w.flushTicker.Stop()
		close(w.done)
		w.wg.Wait()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	for name, tf := range w.files {
		err = multierr.Append(err, tf.w.Flush())
		err = multierr.Append(err, tf.f.Close())
		delete(w.files, name)
	}

	w.logger.Info("file sink closed", "writes", w.metrics.Writes, "errors", w.metrics.Errors)
	return err
}

// Stats returns current metrics.
func (w *FileWriter) Stats() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := w.metrics
	m.Files = len(w.files)
	return m
}

// Flush writes buffered data of every open file.
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *FileWriter) flushLocked() error {
	var err error
	for _, tf := range w.files {
		err = multierr.Append(err, tf.w.Flush())
	}
	w.metrics.Flushes++
	if err != nil {
		w.metrics.Errors++
	}
	return err
}

func (w *FileWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case <-w.flushTicker.C:
			if err := w.Flush(); err != nil {
				w.logger.Error("flush failed", "error", err)
			}
		}
	}
}

func (w *FileWriter) write(ev protocol.Event, productID string) error {
	if !w.events[ev.Type()] {
		return nil
	}

	data, err := protocol.Encode(ev)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	tf, err := w.open(FileName(ev.Type(), productID))
	if err != nil {
		w.metrics.Errors++
		return err
	}

	if _, err := tf.w.Write(data); err != nil {
		w.metrics.Errors++
		return fmt.Errorf("write %s: %w", tf.f.Name(), err)
	}
	if err := tf.w.WriteByte('\n'); err != nil {
		w.metrics.Errors++
		return fmt.Errorf("write %s: %w", tf.f.Name(), err)
	}
	w.metrics.Writes++
	return nil
}

// open returns the file for name, opening it in append mode on first use.
// Must be called with mu held.
func (w *FileWriter) open(name string) (*topicFile, error) {
	if tf, ok := w.files[name]; ok {
		return tf, nil
	}

	path := filepath.Join(w.cfg.Directory, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	tf := &topicFile{f: f, w: bufio.NewWriterSize(f, w.cfg.BufferSize)}
	w.files[name] = tf
	w.logger.Debug("opened output file", "path", path)
	return tf, nil
}

// FileName returns the output file name for an event type and product.
func FileName(t protocol.MessageType, productID string) string {
	if productID == "" {
		return string(t)
	}
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, productID)
	return string(t) + "_" + safe
}
