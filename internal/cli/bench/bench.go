package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/shardkv/internal/cli/connection"
	"github.com/yndnr/shardkv/internal/protocol/resp"
)

// ErrUnknownTest is returned for an unsupported test name.
var ErrUnknownTest = errors.New("bench: unknown test")

// Tests lists the supported test names in run order.
var Tests = []string{"ping", "set", "get", "setex", "exists", "expire", "ttl", "del"}

// Config configures a benchmark run.
type Config struct {
	Addr     string
	Clients  int
	Requests int
	Pipeline int
	// Rate caps requests per second across all clients; 0 means unlimited.
	Rate     float64
	Tests    []string
	KeySpace int
	DataSize int
	Timeout  time.Duration
}

// DefaultConfig returns the default benchmark configuration.
func DefaultConfig() Config {
	return Config{
		Addr:     "127.0.0.1:6379",
		Clients:  50,
		Requests: 100000,
		Pipeline: 1,
		Tests:    []string{"set", "get"},
		KeySpace: 10000,
		DataSize: 3,
		Timeout:  5 * time.Second,
	}
}

// Result summarizes one test.
type Result struct {
	Test     string
	Requests int64
	Errors   int64
	Elapsed  time.Duration
	P50      time.Duration
	P99      time.Duration
	Max      time.Duration
}

// RPS returns completed requests per second.
func (r Result) RPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Requests) / r.Elapsed.Seconds()
}

// String renders the result on one line.
func (r Result) String() string {
	return fmt.Sprintf("%-7s %9d requests in %8.3fs  %10.0f req/s  errors=%d  p50=%v p99=%v max=%v",
		strings.ToUpper(r.Test), r.Requests, r.Elapsed.Seconds(), r.RPS(), r.Errors,
		r.P50, r.P99, r.Max)
}

// Progress receives the number of completed requests of the running test.
type Progress func(test string, done int64)

// Runner runs benchmark tests.
type Runner struct {
	cfg      Config
	value    []byte
	progress Progress
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(cfg Config, progress Progress) (*Runner, error) {
	if cfg.Clients <= 0 || cfg.Requests <= 0 || cfg.Pipeline <= 0 {
		return nil, fmt.Errorf("bench: clients, requests and pipeline must be positive")
	}
	if cfg.KeySpace <= 0 {
		cfg.KeySpace = 1
	}
	if cfg.DataSize < 0 {
		cfg.DataSize = 0
	}
	for _, t := range cfg.Tests {
		if !slices.Contains(Tests, t) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTest, t)
		}
	}
	if progress == nil {
		progress = func(string, int64) {}
	}
	return &Runner{
		cfg:      cfg,
		value:    []byte(strings.Repeat("x", cfg.DataSize)),
		progress: progress,
	}, nil
}

// Run executes every configured test in order.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(r.cfg.Tests))
	for _, t := range r.cfg.Tests {
		res, err := r.RunTest(ctx, t)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// RunTest executes one test.
func (r *Runner) RunTest(ctx context.Context, test string) (Result, error) {
	if !slices.Contains(Tests, test) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTest, test)
	}

	clients := make([]*connection.Client, 0, r.cfg.Clients)
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()
	for i := 0; i < r.cfg.Clients; i++ {
		c, err := connection.Dial(ctx, r.cfg.Addr, connection.WithTimeout(r.cfg.Timeout))
		if err != nil {
			return Result{}, err
		}
		clients = append(clients, c)
	}

	var limiter *rate.Limiter
	if r.cfg.Rate > 0 {
		burst := r.cfg.Pipeline
		if float64(burst) > r.cfg.Rate {
			burst = max(1, int(r.cfg.Rate))
		}
		limiter = rate.NewLimiter(rate.Limit(r.cfg.Rate), burst)
	}

	var (
		claimed atomic.Int64
		done    atomic.Int64
		errs    atomic.Int64
		mu      sync.Mutex
		lats    []time.Duration
		runErr  error
		errOnce sync.Once
	)
	total := int64(r.cfg.Requests)

	start := time.Now()
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *connection.Client) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			local := make([]time.Duration, 0, 1024)
			defer func() {
				mu.Lock()
				lats = append(lats, local...)
				mu.Unlock()
			}()

			for ctx.Err() == nil {
				n := r.claim(&claimed, total)
				if n == 0 {
					return
				}
				if limiter != nil {
					if err := waitN(ctx, limiter, n); err != nil {
						return
					}
				}

				batchStart := time.Now()
				failed, err := r.batch(c, rng, test, n)
				if err != nil {
					errOnce.Do(func() { runErr = err })
					return
				}
				lat := time.Since(batchStart)
				for i := 0; i < n; i++ {
					local = append(local, lat)
				}
				errs.Add(int64(failed))
				r.progress(test, done.Add(int64(n)))
			}
		}(c)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if runErr != nil {
		return Result{}, runErr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	slices.Sort(lats)
	return Result{
		Test:     test,
		Requests: done.Load(),
		Errors:   errs.Load(),
		Elapsed:  elapsed,
		P50:      percentile(lats, 0.50),
		P99:      percentile(lats, 0.99),
		Max:      percentile(lats, 1),
	}, nil
}

func (r *Runner) claim(claimed *atomic.Int64, total int64) int {
	for {
		cur := claimed.Load()
		if cur >= total {
			return 0
		}
		n := min(int64(r.cfg.Pipeline), total-cur)
		if claimed.CompareAndSwap(cur, cur+n) {
			return int(n)
		}
	}
}

// waitN waits for n tokens, in chunks no larger than the limiter burst.
func waitN(ctx context.Context, l *rate.Limiter, n int) error {
	for n > 0 {
		k := min(n, l.Burst())
		if err := l.WaitN(ctx, k); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// batch sends n requests, reads n replies and returns the number of
// error replies.
func (r *Runner) batch(c *connection.Client, rng *rand.Rand, test string, n int) (int, error) {
	for i := 0; i < n; i++ {
		if err := c.Send(r.command(rng, test)...); err != nil {
			return 0, err
		}
	}
	if err := c.Flush(); err != nil {
		return 0, err
	}

	failed := 0
	for i := 0; i < n; i++ {
		reply, err := c.Receive()
		if err != nil {
			return 0, err
		}
		if reply.Kind == resp.KindError {
			failed++
		}
	}
	return failed, nil
}

var ttlArg = []byte("100")

func (r *Runner) command(rng *rand.Rand, test string) [][]byte {
	key := []byte("key:" + strconv.Itoa(rng.IntN(r.cfg.KeySpace)))
	switch test {
	case "ping":
		return [][]byte{[]byte("PING")}
	case "set":
		return [][]byte{[]byte("SET"), key, r.value}
	case "get":
		return [][]byte{[]byte("GET"), key}
	case "setex":
		return [][]byte{[]byte("SETEX"), key, ttlArg, r.value}
	case "exists":
		return [][]byte{[]byte("EXISTS"), key}
	case "expire":
		return [][]byte{[]byte("EXPIRE"), key, ttlArg}
	case "ttl":
		return [][]byte{[]byte("TTL"), key}
	default: // del
		return [][]byte{[]byte("DEL"), key}
	}
}

// percentile returns the q-quantile of sorted durations.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q*float64(len(sorted))+0.5) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
