package redisserver

import "sync"

// task is one command waiting for a worker.
type task struct {
	connID uint64
	seq    uint64
	args   [][]byte
}

// pool is a fixed set of worker goroutines fed by an unbounded FIFO.
// Submit never blocks, so the event loop is never stalled by slow
// commands.
type pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	head   int
	closed bool

	run func(task)
	wg  sync.WaitGroup
}

func newPool(workers int, run func(task)) *pool {
	if workers < 1 {
		workers = 1
	}
	p := &pool{run: run}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues t. It returns false once the pool is stopped.
func (p *pool) Submit(t task) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, t)
	p.mu.Unlock()

	p.cond.Signal()
	return true
}

// Len returns the number of queued tasks.
func (p *pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) - p.head
}

func (p *pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.head == len(p.queue) && !p.closed {
			p.cond.Wait()
		}
		if p.head == len(p.queue) {
			p.mu.Unlock()
			return
		}

		t := p.queue[p.head]
		p.queue[p.head] = task{}
		p.head++
		switch {
		case p.head == len(p.queue):
			p.queue = p.queue[:0]
			p.head = 0
		case p.head >= 1024 && p.head*2 >= len(p.queue):
			n := copy(p.queue, p.queue[p.head:])
			clear(p.queue[n:])
			p.queue = p.queue[:n]
			p.head = 0
		}
		p.mu.Unlock()

		p.run(t)
	}
}

// Stop lets the workers finish the queued tasks and waits for them.
func (p *pool) Stop() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}
