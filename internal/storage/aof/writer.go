package aof

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// File permission constants.
const (
	DefaultFilePerm = 0600
	DefaultDirPerm  = 0750
)

// DefaultSyncInterval is the fsync period in SyncEverySec mode.
const DefaultSyncInterval = time.Second

// SyncMode defines when appended records are fsynced.
type SyncMode string

const (
	SyncAlways   SyncMode = "always"
	SyncEverySec SyncMode = "everysec"
	SyncNo       SyncMode = "no"
)

// ParseSyncMode maps a configuration value to a SyncMode. It accepts the
// mode names plus boolean spellings: yes/true/1 mean always and
// no/false/0 mean no.
func ParseSyncMode(s string) (SyncMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always", "yes", "true", "1":
		return SyncAlways, true
	case "everysec":
		return SyncEverySec, true
	case "no", "false", "0":
		return SyncNo, true
	default:
		return "", false
	}
}

// Config configures the AOF writer.
type Config struct {
	Path string

	SyncMode     SyncMode
	SyncInterval time.Duration

	// TruncateTo cuts the file to this length before appending. Negative
	// values leave the file untouched.
	TruncateTo int64
}

// DefaultConfig returns the default AOF configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		SyncMode:     SyncAlways,
		SyncInterval: DefaultSyncInterval,
		TruncateTo:   -1,
	}
}

// logFile is the part of *os.File the writer uses.
type logFile interface {
	io.Writer
	Sync() error
	Truncate(size int64) error
	Close() error
}

// Writer appends records to the log file.
//
// Each record is rendered into one buffer and written with a single Write
// call under the writer's mutex, so records never interleave. A write that
// lands only part of a record is cut back off the file before Append
// returns, so the next record never starts mid-line.
type Writer struct {
	cfg Config

	mu       sync.Mutex
	file     logFile
	buf      []byte
	size     int64
	appended uint64
	dirty    bool
	closed   bool
	failed   error

	syncTicker *time.Ticker
	stopCh     chan struct{}
	wg         sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) the log file for appending.
func Open(cfg Config) (*Writer, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("aof: path is required")
	}
	applyDefaults(&cfg)

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return nil, fmt.Errorf("aof: create dir: %w", err)
		}
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, DefaultFilePerm)
	if err != nil {
		return nil, fmt.Errorf("aof: open: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("aof: stat: %w", err)
	}
	size := stat.Size()

	if cfg.TruncateTo >= 0 && cfg.TruncateTo < size {
		if err := file.Truncate(cfg.TruncateTo); err != nil {
			file.Close()
			return nil, fmt.Errorf("aof: truncate torn tail: %w", err)
		}
		if err := file.Sync(); err != nil {
			file.Close()
			return nil, fmt.Errorf("aof: sync: %w", err)
		}
		size = cfg.TruncateTo
	}

	w := &Writer{
		cfg:    cfg,
		file:   file,
		size:   size,
		stopCh: make(chan struct{}),
	}

	if cfg.SyncMode == SyncEverySec {
		w.startSyncLoop()
	}

	return w, nil
}

func applyDefaults(cfg *Config) {
	if cfg.SyncMode == "" {
		cfg.SyncMode = SyncAlways
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.cfg.Path
}

// Mode returns the active sync mode.
func (w *Writer) Mode() SyncMode {
	return w.cfg.SyncMode
}

// AppendSet journals SET key value.
func (w *Writer) AppendSet(key string, value []byte) error {
	return w.Append(Record{Op: OpSet, Key: key, Value: value})
}

// AppendSetEx journals SETEX key ttl value.
func (w *Writer) AppendSetEx(key string, ttlSeconds int64, value []byte) error {
	return w.Append(Record{Op: OpSetEx, Key: key, TTL: ttlSeconds, Value: value})
}

// AppendDel journals DEL key.
func (w *Writer) AppendDel(key string) error {
	return w.Append(Record{Op: OpDel, Key: key})
}

// AppendExpire journals EXPIRE key ttl.
func (w *Writer) AppendExpire(key string, ttlSeconds int64) error {
	return w.Append(Record{Op: OpExpire, Key: key, TTL: ttlSeconds})
}

// Append writes one record.
func (w *Writer) Append(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.failed != nil {
		return fmt.Errorf("%w: %w", ErrFailed, w.failed)
	}

	w.buf = appendRecord(w.buf[:0], rec)
	n, err := w.file.Write(w.buf)
	if err == nil && n < len(w.buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 {
			w.rollback(n)
		}
		return fmt.Errorf("aof: write %s: %w", rec.Op, err)
	}
	w.size += int64(n)
	w.appended++

	if w.cfg.SyncMode == SyncAlways {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("aof: sync: %w", err)
		}
		return nil
	}
	w.dirty = true
	return nil
}

// rollback removes the n bytes of a partially written record. If the file
// cannot be cut back the writer refuses further appends, leaving the torn
// record as the final line for the next startup to repair.
func (w *Writer) rollback(n int) {
	if err := w.file.Truncate(w.size); err != nil {
		w.failed = fmt.Errorf("truncate partial record of %d bytes: %w", n, err)
		w.size += int64(n)
	}
}

// Sync flushes written records to stable storage.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

func (w *Writer) syncLocked() error {
	if w.closed || !w.dirty {
		return nil
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("aof: sync: %w", err)
	}
	w.dirty = false
	return nil
}

// Size returns the current file size in bytes.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Appended returns the number of records written since Open.
func (w *Writer) Appended() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appended
}

func (w *Writer) startSyncLoop() {
	w.syncTicker = time.NewTicker(w.cfg.SyncInterval)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.syncTicker.C:
				_ = w.Sync()
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Close syncs and closes the log file. It is safe to call more than once;
// later calls return the first call's result.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.close()
	})
	return w.closeErr
}

func (w *Writer) close() error {
	close(w.stopCh)
	if w.syncTicker != nil {
		w.syncTicker.Stop()
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.dirty = true
	syncErr := w.syncLocked()
	w.closed = true

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("aof: close: %w", err)
	}
	return syncErr
}
