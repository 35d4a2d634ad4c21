package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/shardkv/internal/storage/aof"
	"github.com/yndnr/shardkv/internal/storage/memory"
)

// Default configuration values.
const (
	DefaultShardCount = memory.DefaultShardCount
	DefaultAOFPath    = "aof.log"
)

// Config configures the storage engine.
type Config struct {
	// ShardCount is the fixed number of store shards.
	ShardCount int

	// AOFEnabled turns the append-only log on.
	AOFEnabled bool

	// AOF configures the log writer. TruncateTo is managed by Recover.
	AOF aof.Config

	// Clock overrides the store's time source.
	Clock func() time.Time

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		ShardCount: DefaultShardCount,
		AOFEnabled: true,
		AOF:        aof.DefaultConfig(DefaultAOFPath),
		Logger:     slog.Default(),
	}
}

// Stats is a point-in-time view of engine counters.
type Stats struct {
	Keys            int
	Durable         bool
	AOFSize         int64
	AOFAppended     uint64
	JournalErrors   uint64
	ReplayApplied   int
	ReplayTruncated bool
	// CorruptCopy is where the log was preserved before cutting off
	// records that followed a corrupt line.
	CorruptCopy string
}

// Engine combines the memory store with the append-only log.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	store  *memory.Store
	writer *aof.Writer

	replay        aof.ReplayResult
	corruptCopy   string
	journalErrors atomic.Uint64

	recoverOnce sync.Once
	closeOnce   sync.Once
}

// New creates a storage engine.
//
// This creates the store but does NOT touch the log.
// Call Recover() after New() to load existing data and start journaling.
func New(cfg Config) (*Engine, error) {
	if cfg.AOFEnabled && cfg.AOF.Path == "" {
		return nil, fmt.Errorf("storage: aof path is required when aof is enabled")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Engine{
		cfg:    cfg,
		logger: cfg.Logger,
	}

	opts := []memory.Option{
		memory.WithJournalErrorHandler(e.onJournalError),
	}
	if cfg.Clock != nil {
		opts = append(opts, memory.WithClock(cfg.Clock))
	}
	e.store = memory.New(cfg.ShardCount, opts...)

	return e, nil
}

// Recover replays the log and attaches the writer.
//
// Recovery process:
//  1. Replay every complete record in file order
//  2. Cut off a torn final line, or, when records follow a corrupt line,
//     copy the whole log aside first and then cut it at that line
//  3. Open the log for appending and attach it to the store
//
// Failures to read or open the log disable durability but are not
// returned; only context cancellation is.
func (e *Engine) Recover(ctx context.Context) error {
	var err error
	e.recoverOnce.Do(func() {
		err = e.recover(ctx)
	})
	return err
}

func (e *Engine) recover(ctx context.Context) error {
	if !e.cfg.AOFEnabled {
		e.logger.Warn("durability disabled", "reason", "aof disabled by configuration")
		return nil
	}

	startTime := time.Now()
	path := e.cfg.AOF.Path
	e.logger.Info("aof replay started", "path", path)

	res, err := aof.NewReader(path).Replay(ctx, e.store)
	e.replay = res
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Error("durability disabled",
			"reason", "aof replay failed",
			"path", path,
			"records_applied", res.Applied,
			"error", err)
		return nil
	}

	e.logger.Info("aof replayed",
		"records_applied", res.Applied,
		"valid_bytes", res.ValidBytes,
		"keys", e.store.Len(),
		"elapsed", time.Since(startTime))

	wcfg := e.cfg.AOF
	wcfg.TruncateTo = -1
	switch {
	case res.Truncated && res.TornTail:
		e.logger.Warn("aof has a torn tail, truncating",
			"path", path,
			"valid_bytes", res.ValidBytes,
			"error", res.Err)
		wcfg.TruncateTo = res.ValidBytes
	case res.Truncated:
		copyPath, err := preserveLog(path, e.now())
		if err != nil {
			e.logger.Error("durability disabled",
				"reason", "aof has a corrupt record and could not be preserved",
				"path", path,
				"valid_bytes", res.ValidBytes,
				"corrupt_error", res.Err,
				"error", err)
			return nil
		}
		e.corruptCopy = copyPath
		e.logger.Error("aof has a corrupt record before its end, truncating",
			"path", path,
			"valid_bytes", res.ValidBytes,
			"preserved_as", copyPath,
			"error", res.Err)
		wcfg.TruncateTo = res.ValidBytes
	}

	writer, err := aof.Open(wcfg)
	if err != nil {
		e.logger.Error("durability disabled",
			"reason", "aof open failed",
			"path", path,
			"error", err)
		return nil
	}

	e.writer = writer
	e.store.AttachJournal(writer)
	e.logger.Info("aof enabled", "path", path, "fsync", writer.Mode())
	return nil
}

func (e *Engine) now() time.Time {
	if e.cfg.Clock != nil {
		return e.cfg.Clock()
	}
	return time.Now()
}

// preserveLog copies the log at path next to it, so records past a corrupt
// line survive the truncation that follows.
func preserveLog(path string, now time.Time) (string, error) {
	copyPath := path + ".corrupt-" + now.UTC().Format("20060102T150405Z")

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("storage: open log: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(copyPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, aof.DefaultFilePerm)
	if err != nil {
		return "", fmt.Errorf("storage: create log copy: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(copyPath)
		return "", fmt.Errorf("storage: copy log: %w", err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		os.Remove(copyPath)
		return "", fmt.Errorf("storage: sync log copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(copyPath)
		return "", fmt.Errorf("storage: close log copy: %w", err)
	}
	return copyPath, nil
}

func (e *Engine) onJournalError(op, key string, err error) {
	e.journalErrors.Add(1)
	e.logger.Error("aof append failed", "op", op, "key", key, "error", err)
}

// Store returns the memory store.
func (e *Engine) Store() *memory.Store {
	return e.store
}

// ShardLens returns the number of entries held by each shard.
func (e *Engine) ShardLens() []int {
	return e.store.ShardLens()
}

// Durable reports whether mutations are being journaled.
func (e *Engine) Durable() bool {
	return e.writer != nil
}

// Stats returns current engine counters.
func (e *Engine) Stats() Stats {
	st := Stats{
		Keys:            e.store.Len(),
		Durable:         e.writer != nil,
		JournalErrors:   e.journalErrors.Load(),
		ReplayApplied:   e.replay.Applied,
		ReplayTruncated: e.replay.Truncated,
		CorruptCopy:     e.corruptCopy,
	}
	if e.writer != nil {
		st.AOFSize = e.writer.Size()
		st.AOFAppended = e.writer.Appended()
	}
	return st
}

// Close syncs and closes the log. The store stays readable.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.writer == nil {
			return
		}
		e.logger.Info("closing aof", "path", e.writer.Path())
		if err = e.writer.Close(); err != nil {
			e.logger.Error("close aof failed", "error", err)
		}
	})
	return err
}
