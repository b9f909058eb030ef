package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultQueueSize    = 256
	defaultIdleTimeout  = time.Second
	defaultFaultBackoff = time.Second
)

// Queue buffers task ids for asynchronous processing and keeps exactly
// one background worker alive while work remains. The worker starts
// lazily on enqueue and exits after the queue stays empty for the idle
// timeout; the exit decision and enqueue serialize on the same mutex so
// a task enqueued during the exit window is never lost.
type Queue struct {
	proc         *Processor
	ch           chan string
	idleTimeout  time.Duration
	faultBackoff time.Duration

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

func NewQueue(proc *Processor, size int, idleTimeout time.Duration) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	return &Queue{
		proc:         proc,
		ch:           make(chan string, size),
		idleTimeout:  idleTimeout,
		faultBackoff: defaultFaultBackoff,
	}
}

// Enqueue hands a task id to the worker, starting one if none is
// running. Blocks only when the buffer is full. The send happens
// before the running check: if the worker exits between the two, the
// check observes running=false and starts a fresh worker for the task
// just sent; if the worker instead observes the non-empty queue during
// its exit check, it keeps running. Either way the task survives.
func (q *Queue) Enqueue(taskID string) {
	q.ch <- taskID
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		q.running = true
		q.wg.Add(1)
		go q.run()
	}
}

// Running reports whether a worker goroutine is currently alive.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Wait blocks until the worker has drained the queue and stopped.
func (q *Queue) Wait() { q.wg.Wait() }

func (q *Queue) run() {
	defer q.wg.Done()
	log.Debug().Msg("worker started")
	for {
		select {
		case id := <-q.ch:
			q.process(id)
		case <-time.After(q.idleTimeout):
			q.mu.Lock()
			select {
			case id := <-q.ch:
				q.mu.Unlock()
				q.process(id)
			default:
				q.running = false
				q.mu.Unlock()
				log.Debug().Msg("worker idle, stopping")
				return
			}
		}
	}
}

func (q *Queue) process(taskID string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("task_id", taskID).Msg("worker fault")
			time.Sleep(q.faultBackoff)
		}
	}()

	out := q.proc.Process(context.Background(), taskID)
	switch {
	case out.Skipped:
		log.Warn().Str("task_id", taskID).Msg("task not found, skipping")
	case out.Err != nil:
		log.Error().Err(out.Err).Str("task_id", taskID).Msg("task failed")
	default:
		log.Info().Str("task_id", taskID).Int("records", out.Records).Msg("task completed")
	}
}
