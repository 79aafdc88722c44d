package reactor

import "sync"

// Loop is a single event loop: one goroutine executing posted tasks
// strictly one at a time, in the order they were posted. Connections bound
// to the same Loop are therefore never touched concurrently by reactor-tier
// code, without any additional per-connection locking.
type Loop struct {
	mu      sync.Mutex
	tasks   chan func()
	stopped bool
	done    chan struct{}
}

func newLoop(queueDepth int) *Loop {
	if queueDepth < 1 {
		queueDepth = 64
	}
	return &Loop{
		tasks: make(chan func(), queueDepth),
		done:  make(chan struct{}),
	}
}

func (l *Loop) start() {
	go l.run()
}

func (l *Loop) run() {
	defer close(l.done)
	for task := range l.tasks {
		task()
	}
}

// Post submits a task to run on this loop's goroutine. Safe to call from
// any goroutine; never blocks on user code since it only enqueues. A post
// after the loop stopped is dropped: I/O completions can land after the
// pool is torn down, and the connection they belong to is already closed.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.tasks <- task
}

// stop closes the task channel; run drains whatever was already queued and
// then exits.
func (l *Loop) stop() {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		close(l.tasks)
	}
	l.mu.Unlock()
	<-l.done
}
