package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cpcf/scaffold/template"
	"github.com/cpcf/scaffold/variant"
)

// ErrPoolStopped is returned by Submit once Stop has been called.
var ErrPoolStopped = errors.New("worker pool stopped")

type Task interface {
	Execute(ctx context.Context) error
	ID() string
}

// WorkerPool runs tasks on a fixed number of goroutines.
type WorkerPool struct {
	size       int
	queue      chan Task
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    int32
	completed  int64
	failed     int64
	processing int64
}

func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		size:   size,
		queue:  make(chan Task, size*2),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (wp *WorkerPool) Start() {
	if atomic.CompareAndSwapInt32(&wp.started, 0, 1) {
		wp.wg.Add(wp.size)
		for i := 0; i < wp.size; i++ {
			go wp.worker()
		}
	}
}

// Stop cancels running tasks and waits for the workers to exit. Queued
// tasks that have not started are dropped.
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
}

// Submit queues task, blocking while the queue is full.
func (wp *WorkerPool) Submit(ctx context.Context, task Task) error {
	select {
	case wp.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.ctx.Done():
		return ErrPoolStopped
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case task := <-wp.queue:
			atomic.AddInt64(&wp.processing, 1)
			err := task.Execute(wp.ctx)
			atomic.AddInt64(&wp.processing, -1)

			if err != nil {
				atomic.AddInt64(&wp.failed, 1)
			} else {
				atomic.AddInt64(&wp.completed, 1)
			}
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		WorkerCount:     wp.size,
		QueueLength:     len(wp.queue),
		QueueCapacity:   cap(wp.queue),
		TasksCompleted:  atomic.LoadInt64(&wp.completed),
		TasksFailed:     atomic.LoadInt64(&wp.failed),
		TasksProcessing: atomic.LoadInt64(&wp.processing),
	}
}

type WorkerPoolStats struct {
	WorkerCount     int   `json:"worker_count"`
	QueueLength     int   `json:"queue_length"`
	QueueCapacity   int   `json:"queue_capacity"`
	TasksCompleted  int64 `json:"tasks_completed"`
	TasksFailed     int64 `json:"tasks_failed"`
	TasksProcessing int64 `json:"tasks_processing"`
}

// renderTask renders one template into its slot of a shared result slice.
// run is the context of the whole render; it is cancelled on the first
// failure in FailFast mode.
type renderTask struct {
	run      context.Context
	index    int
	src      Context
	tp       variant.TemplatePath
	values   template.Context
	renderer *Renderer
	files    []File
	errs     []error
	done     *sync.WaitGroup
	abort    func()
}

func (rt *renderTask) Execute(ctx context.Context) error {
	defer rt.done.Done()

	if err := rt.run.Err(); err != nil {
		rt.errs[rt.index] = err
		return err
	}
	if err := ctx.Err(); err != nil {
		rt.errs[rt.index] = err
		return err
	}

	file, err := rt.renderer.renderFile(rt.src, rt.tp, rt.values)
	if err != nil {
		rt.errs[rt.index] = err
		rt.abort()
		return err
	}
	rt.files[rt.index] = file
	return nil
}

func (rt *renderTask) ID() string {
	return rt.tp.Source
}
