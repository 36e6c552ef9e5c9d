package async

import (
	"context"
	"sync"
)

// Task is one unit of queued work
type Task func(ctx context.Context) (interface{}, error)

type Result struct {
	Value interface{}
	Err   error
}

// Drain is the completion handle of one drain cycle. Every push made while
// the cycle runs gets the same handle.
type Drain struct {
	done    chan struct{}
	results []Result
}

func newDrain() *Drain {
	return &Drain{done: make(chan struct{})}
}

func (d *Drain) Done() <-chan struct{} {
	return d.done
}

// Results returns the results of the tasks that ran, in run order. Only
// meaningful once Done is closed.
func (d *Drain) Results() []Result {
	select {
	case <-d.done:
		return d.results
	default:
		return nil
	}
}

// Wait blocks until the cycle completes or ctx is done
func (d *Drain) Wait(ctx context.Context) ([]Result, error) {
	select {
	case <-d.done:
		return d.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var completed = func() *Drain {
	d := newDrain()
	close(d.done)
	return d
}()

type QueueOption func(*Queue)

// WithDedupe makes every push discard the tasks that have not started yet
func WithDedupe() QueueOption {
	return func(q *Queue) {
		q.dedupe = true
	}
}

// WithContext sets the context handed to every task
func WithContext(ctx context.Context) QueueOption {
	return func(q *Queue) {
		q.ctx = ctx
	}
}

// Queue runs tasks one at a time in push order on a single draining
// goroutine. The pending list is only touched under mu.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	drain  *Drain
	dedupe bool
	ctx    context.Context
}

func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{ctx: context.Background()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends a task and returns the handle of the cycle it will run in
func (q *Queue) Push(task Task) *Drain {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.dedupe {
		q.tasks = nil
	}
	q.tasks = append(q.tasks, task)
	if q.drain == nil {
		d := newDrain()
		q.drain = d
		Run(func() { q.run(d) })
	}
	return q.drain
}

// Flush returns the running cycle, or a completed empty one when idle
func (q *Queue) Flush() *Drain {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.drain == nil {
		return completed
	}
	return q.drain
}

// Len reports the number of tasks not yet started
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) run(d *Drain) {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.drain = nil
			q.mu.Unlock()
			close(d.done)
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		var r Result
		r.Err = Call(func() error {
			v, err := task(q.ctx)
			r.Value = v
			return err
		})
		d.results = append(d.results, r)
	}
}
