package redisserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/shardkv/internal/protocol/resp"
	"github.com/yndnr/shardkv/internal/server/netpoll"
)

// ErrServerClosed is returned by Start after the server has been shut down.
var ErrServerClosed = errors.New("redisserver: server closed")

const errMaxClients = "max number of clients reached"

// acceptBackoff is how long the listener stays out of the poller after
// accept runs out of descriptors.
const acceptBackoff = 100 * time.Millisecond

// Config holds the server configuration.
type Config struct {
	// Host is the address to bind; empty binds all IPv4 interfaces.
	Host string
	// Port is the TCP port; 0 picks a free port.
	Port int
	// Workers is the number of command worker goroutines.
	Workers int
	// MaxClients limits concurrent connections; 0 means unlimited.
	MaxClients int
	// Backlog is the listen queue length.
	Backlog int
	// ReadBufferSize is the per-read buffer size.
	ReadBufferSize int
	// MaxEvents bounds the readiness events handled per loop iteration.
	MaxEvents int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           6379,
		Workers:        4,
		MaxClients:     0,
		Backlog:        netpoll.DefaultBacklog,
		ReadBufferSize: 16 << 10,
		MaxEvents:      256,
	}
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = def.Backlog
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = def.MaxEvents
	}
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// response is a finished command travelling from a worker to the loop.
type response struct {
	connID uint64
	seq    uint64
	data   []byte
}

// Server is the event-driven Redis protocol server.
type Server struct {
	cfg     Config
	exec    *Executor
	logger  *slog.Logger
	metrics Metrics

	poller *netpoll.Poller
	lfd    int
	addr   *net.TCPAddr
	pool   *pool

	// Loop-owned connection tables.
	conns  map[uint64]*Conn
	byFd   map[int]uint64
	nextID uint64
	dead   []*Conn

	accept      func(lfd int) (int, string, error)
	acceptPause time.Time
	acceptLog   rate.Sometimes

	pendingMu sync.Mutex
	pending   []response
	spare     []response

	connCount atomic.Int64
	started   atomic.Bool
	stopping  atomic.Bool
	done      chan struct{}
}

// New creates a server executing commands against store.
func New(cfg *Config, store Store, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     *cfg,
		exec:    NewExecutor(store),
		logger:  logger,
		metrics: nopMetrics{},
		lfd:     -1,
		conns:   make(map[uint64]*Conn),
		byFd:    make(map[int]uint64),
		done:    make(chan struct{}),
		accept:  netpoll.Accept,

		acceptLog: rate.Sometimes{Interval: 5 * time.Second},
	}
	applyDefaults(&s.cfg)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listening socket and runs the event loop in a new
// goroutine. Failure to bind or listen is returned; once Start succeeds
// the server only stops through Shutdown or ctx cancellation.
func (s *Server) Start(ctx context.Context) error {
	if s.stopping.Load() {
		return ErrServerClosed
	}
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("redisserver: already started")
	}

	poller, err := netpoll.New()
	if err != nil {
		s.started.Store(false)
		return fmt.Errorf("redisserver: create poller: %w", err)
	}

	lfd, addr, err := netpoll.Listen(s.cfg.Host, s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		poller.Close()
		s.started.Store(false)
		return fmt.Errorf("redisserver: listen: %w", err)
	}
	if err := poller.AddRead(lfd); err != nil {
		netpoll.Close(lfd)
		poller.Close()
		s.started.Store(false)
		return fmt.Errorf("redisserver: register listener: %w", err)
	}

	s.poller = poller
	s.lfd = lfd
	s.addr = addr
	s.pool = newPool(s.cfg.Workers, s.runTask)

	s.logger.Info("redis server listening",
		"address", addr.String(),
		"workers", s.cfg.Workers,
		"max_clients", s.cfg.MaxClients)

	go s.loop()
	go func() {
		select {
		case <-ctx.Done():
			s.stop()
		case <-s.done:
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.addr == nil {
		return nil
	}
	return s.addr
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	return int(s.connCount.Load())
}

// Shutdown stops the event loop, closes every connection and waits for
// in-flight commands to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		s.stopping.Store(true)
		return nil
	}
	s.stop()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		s.pool.Stop()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) stop() {
	if s.stopping.CompareAndSwap(false, true) {
		_ = s.poller.Wake()
	}
}

// Submit hands a decoded command to the worker pool.
func (s *Server) Submit(connID, seq uint64, args [][]byte) {
	s.pool.Submit(task{connID: connID, seq: seq, args: args})
}

// runTask executes one command on a worker goroutine.
func (s *Server) runTask(t task) {
	start := time.Now()
	out := s.exec.Execute(nil, t.args)
	s.metrics.CommandDone(CommandName(t.args), time.Since(start), len(out) > 0 && out[0] == '-')
	s.pushResponse(response{connID: t.connID, seq: t.seq, data: out})
}

// pushResponse queues a reply for the loop and wakes it when the queue
// goes from empty to non-empty.
func (s *Server) pushResponse(r response) {
	s.pendingMu.Lock()
	wasEmpty := len(s.pending) == 0
	s.pending = append(s.pending, r)
	s.pendingMu.Unlock()

	if wasEmpty {
		_ = s.poller.Wake()
	}
}

func (s *Server) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	events := make([]netpoll.Event, s.cfg.MaxEvents)
	readBuf := make([]byte, s.cfg.ReadBufferSize)

	for !s.stopping.Load() {
		s.drainResponses()
		s.resumeAccept(time.Now())

		n, err := s.poller.Wait(events, s.waitTimeout(time.Now()))
		if err != nil {
			if errors.Is(err, netpoll.ErrClosed) {
				break
			}
			s.logger.Error("poll wait failed", "error", err)
			continue
		}

		for _, ev := range events[:n] {
			if ev.Fd == s.lfd {
				s.acceptAll()
				continue
			}
			id, ok := s.byFd[ev.Fd]
			if !ok {
				continue
			}
			c := s.conns[id]
			if ev.Readable && c.Open() {
				s.handleRead(c, readBuf)
			}
			if ev.Writable && c.Open() {
				s.handleWrite(c)
			}
			if !c.Open() {
				s.markDead(c)
			}
		}

		s.releaseDead()
	}

	s.closeAll()
}

func (s *Server) acceptAll() {
	for {
		fd, remote, err := s.accept(s.lfd)
		if err != nil {
			if netpoll.IsWouldBlock(err) {
				return
			}
			if netpoll.IsDescriptorExhausted(err) {
				s.pauseAccept(err)
				return
			}
			if netpoll.IsTemporaryAccept(err) {
				s.logger.Debug("accept failed, skipping", "error", err)
				continue
			}
			s.logger.Error("accept failed", "error", err)
			return
		}

		if s.cfg.MaxClients > 0 && len(s.conns) >= s.cfg.MaxClients {
			_, _ = netpoll.Write(fd, resp.AppendError(nil, errMaxClients))
			_ = netpoll.Close(fd)
			s.metrics.ConnectionRejected()
			s.logger.Warn("connection rejected", "remote", remote, "reason", errMaxClients)
			continue
		}

		if err := s.poller.AddRead(fd); err != nil {
			_ = netpoll.Close(fd)
			s.logger.Error("register connection failed", "remote", remote, "error", err)
			continue
		}

		s.nextID++
		c := newConn(fd, s.nextID, remote)
		s.conns[c.id] = c
		s.byFd[fd] = c.id
		s.connCount.Add(1)
		s.metrics.ConnectionOpened()
		s.logger.Debug("connection accepted", "conn_id", c.id, "remote", remote)
	}
}

// pauseAccept takes the listener out of the poller for acceptBackoff. A
// level-triggered listener with a queued connection would otherwise wake
// the loop on every iteration while descriptors are exhausted.
func (s *Server) pauseAccept(err error) {
	s.acceptLog.Do(func() {
		s.logger.Warn("accept failed, pausing new connections",
			"error", err,
			"backoff", acceptBackoff)
	})
	if !s.acceptPause.IsZero() {
		return
	}
	if rerr := s.poller.Remove(s.lfd); rerr != nil {
		s.logger.Error("pause accept failed", "error", rerr)
		return
	}
	s.acceptPause = time.Now().Add(acceptBackoff)
}

// resumeAccept puts the listener back once the backoff has elapsed.
func (s *Server) resumeAccept(now time.Time) {
	if s.acceptPause.IsZero() || now.Before(s.acceptPause) {
		return
	}
	s.acceptPause = time.Time{}
	if err := s.poller.AddRead(s.lfd); err != nil {
		s.logger.Error("resume accept failed", "error", err)
	}
}

// waitTimeout bounds the poll wait while accepts are paused.
func (s *Server) waitTimeout(now time.Time) int {
	if s.acceptPause.IsZero() {
		return -1
	}
	d := s.acceptPause.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

func (s *Server) handleRead(c *Conn, buf []byte) {
	if _, err := c.readFrom(buf); err != nil {
		s.logger.Debug("connection read error", "conn_id", c.id, "remote", c.remote, "error", err)
	}

	if errs := c.process(s); errs > 0 {
		for i := 0; i < errs; i++ {
			s.metrics.FramingError()
		}
		s.logger.Debug("discarded malformed input", "conn_id", c.id, "remote", c.remote, "count", errs)
	}
}

func (s *Server) handleWrite(c *Conn) {
	empty, err := c.flush()
	if err != nil {
		s.logger.Debug("connection write error", "conn_id", c.id, "remote", c.remote, "error", err)
		return
	}
	s.updateWriteInterest(c, empty)
}

// updateWriteInterest keeps write notifications registered only while the
// outbound buffer is non-empty.
func (s *Server) updateWriteInterest(c *Conn, empty bool) {
	switch {
	case empty && c.writeArmed:
		if err := s.poller.DisableWrite(c.fd); err != nil {
			s.logger.Debug("disable write interest failed", "conn_id", c.id, "error", err)
		}
		c.writeArmed = false
	case !empty && !c.writeArmed:
		if err := s.poller.EnableWrite(c.fd); err != nil {
			s.logger.Debug("enable write interest failed", "conn_id", c.id, "error", err)
			c.state = connDraining
			s.markDead(c)
			return
		}
		c.writeArmed = true
	}
}

// drainResponses moves finished replies onto their connections in
// sequence order. Replies for connections that are gone are dropped.
func (s *Server) drainResponses() {
	s.pendingMu.Lock()
	batch := s.pending
	s.pending = s.spare[:0]
	s.pendingMu.Unlock()

	if len(batch) == 0 {
		s.spare = batch
		return
	}

	var touched []*Conn
	for _, r := range batch {
		c, ok := s.conns[r.connID]
		if !ok || !c.Open() {
			continue
		}
		if c.complete(r.seq, r.data) && !c.writeArmed {
			touched = append(touched, c)
		}
	}

	clear(batch)
	s.spare = batch[:0]

	for _, c := range touched {
		if !c.Open() || c.writeArmed {
			continue
		}
		s.handleWrite(c)
		if !c.Open() {
			s.markDead(c)
		}
	}
	s.releaseDead()
}

func (s *Server) markDead(c *Conn) {
	if c.released {
		return
	}
	c.released = true
	s.dead = append(s.dead, c)
}

func (s *Server) releaseDead() {
	for _, c := range s.dead {
		s.closeConn(c)
	}
	clear(s.dead)
	s.dead = s.dead[:0]
}

func (s *Server) closeConn(c *Conn) {
	_ = s.poller.Remove(c.fd)
	if err := netpoll.Close(c.fd); err != nil {
		s.logger.Debug("close connection failed", "conn_id", c.id, "error", err)
	}
	delete(s.byFd, c.fd)
	delete(s.conns, c.id)
	s.connCount.Add(-1)
	s.metrics.ConnectionClosed()
	s.logger.Debug("connection closed", "conn_id", c.id, "remote", c.remote, "pending", c.Pending())
}

func (s *Server) closeAll() {
	for _, c := range s.conns {
		c.state = connDraining
		s.markDead(c)
	}
	s.releaseDead()

	if s.lfd >= 0 {
		_ = s.poller.Remove(s.lfd)
		_ = netpoll.Close(s.lfd)
	}
	if err := s.poller.Close(); err != nil {
		s.logger.Error("close poller failed", "error", err)
	}
	s.logger.Info("redis server stopped")
}
