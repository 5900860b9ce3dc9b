package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jsdelfino/watsonwork-weather/internal/queue"
)

const laneIdleTimeout = time.Minute

type lane struct {
	ch      chan queue.Message
	pending int
}

// Lanes runs messages with the same lane key one at a time, in submission order,
// while a weighted semaphore bounds how many lanes run at once. A lane's
// goroutine exits after it has been idle for laneIdleTimeout.
type Lanes struct {
	sem     *semaphore.Weighted
	process func(ctx context.Context, msg queue.Message)
	buffer  int

	// Lane work runs on a context that outlives shutdown so an in-flight
	// message finishes; queued ones stay pending in the stream.
	workCtx context.Context
	done    <-chan struct{}

	mu    sync.Mutex
	lanes map[string]*lane
	wg    sync.WaitGroup
}

func NewLanes(ctx context.Context, maxConcurrent int64, buffer int, process func(ctx context.Context, msg queue.Message)) *Lanes {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Lanes{
		sem:     semaphore.NewWeighted(maxConcurrent),
		process: process,
		buffer:  buffer,
		workCtx: context.WithoutCancel(ctx),
		done:    ctx.Done(),
		lanes:   make(map[string]*lane),
	}
}

// Submit queues msg on its lane, creating the lane on first use. It blocks while
// the lane's buffer is full and fails only when ctx or the lanes are done.
func (l *Lanes) Submit(ctx context.Context, msg queue.Message) error {
	key := msg.LaneKey()

	l.mu.Lock()
	select {
	case <-l.done:
		l.mu.Unlock()
		return context.Canceled
	default:
	}
	ln, ok := l.lanes[key]
	if !ok {
		ln = &lane{ch: make(chan queue.Message, l.buffer)}
		l.lanes[key] = ln
		l.wg.Add(1)
		go l.run(key, ln)
	}
	ln.pending++
	l.mu.Unlock()

	select {
	case ln.ch <- msg:
		return nil
	case <-ctx.Done():
		l.release(ln)
		return ctx.Err()
	case <-l.done:
		l.release(ln)
		return context.Canceled
	}
}

func (l *Lanes) release(ln *lane) {
	l.mu.Lock()
	ln.pending--
	l.mu.Unlock()
}

func (l *Lanes) run(key string, ln *lane) {
	defer l.wg.Done()

	idle := time.NewTimer(laneIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case msg := <-ln.ch:
			if err := l.sem.Acquire(l.workCtx, 1); err != nil {
				return
			}
			l.process(l.workCtx, msg)
			l.sem.Release(1)
			l.release(ln)

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(laneIdleTimeout)

		case <-idle.C:
			l.mu.Lock()
			if ln.pending == 0 {
				delete(l.lanes, key)
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			idle.Reset(laneIdleTimeout)

		case <-l.done:
			return
		}
	}
}

// Wait blocks until every lane goroutine has exited, which happens once the
// context given to NewLanes is done and in-flight messages finish.
func (l *Lanes) Wait() {
	l.wg.Wait()
}

// Len reports the number of live lanes.
func (l *Lanes) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}
