// Package reactor implements the fixed-cardinality I/O loop pool: a fixed
// set of event loops, handed out round-robin as sockets arrive. A Loop is
// one goroutine draining a task channel one task at a time, so everything
// posted for a given connection runs serialized without per-connection
// locking.
package reactor

import "sync"

// Pool is a fixed set of N loops, started and stopped as a unit.
type Pool struct {
	loops []*Loop
	next  uint64
	mu    sync.Mutex
}

// NewPool creates n loops, each with the given task-queue depth, and starts
// them immediately.
func NewPool(n int, queueDepth int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{loops: make([]*Loop, n)}
	for i := range p.loops {
		p.loops[i] = newLoop(queueDepth)
		p.loops[i].start()
	}
	return p
}

// NextLoop returns the next loop in round-robin order for binding a new
// socket to.
func (p *Pool) NextLoop() *Loop {
	p.mu.Lock()
	l := p.loops[p.next%uint64(len(p.loops))]
	p.next++
	p.mu.Unlock()
	return l
}

// Size reports the fixed loop count N.
func (p *Pool) Size() int { return len(p.loops) }

// Stop stops every loop; pending posted tasks are drained (run) before each
// loop's goroutine exits.
func (p *Pool) Stop() {
	var wg sync.WaitGroup
	wg.Add(len(p.loops))
	for _, l := range p.loops {
		l := l
		go func() {
			defer wg.Done()
			l.stop()
		}()
	}
	wg.Wait()
}
