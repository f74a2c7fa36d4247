package loop

import (
	"context"
	"runtime"
	"sync"
)

// Completion-pool dispatch requires go1.21 or newer; older runtimes get
// serial dispatch.
const (
	poolMinMajor = 1
	poolMinMinor = 21
)

// NewPlatformOptimizedDescriptor returns the Windows backend. The
// dispatch model is version-gated on goVersion (runtime.Version form):
// go1.21 and newer use a completion pool sized to the CPU count, suited
// to proactor-style I/O where completions arrive concurrently; older
// runtimes dispatch serially. The descriptor is constructible on any
// host so selection behavior stays testable off-Windows.
func NewPlatformOptimizedDescriptor(goVersion string) Descriptor {
	return windowsDescriptor{
		pooled: goVersionAtLeast(goVersion, poolMinMajor, poolMinMinor),
	}
}

type windowsDescriptor struct {
	pooled bool
}

func (windowsDescriptor) Kind() Kind { return KindPlatformOptimized }

func (d windowsDescriptor) MakePolicy() (Policy, error) {
	if !d.pooled {
		return serialPolicy{kind: KindPlatformOptimized}, nil
	}
	return poolPolicy{workers: runtime.NumCPU()}, nil
}

func (d windowsDescriptor) MakeContext() (ExecutionContext, error) {
	if !d.pooled {
		return newSerialContext(KindPlatformOptimized), nil
	}
	return newPoolContext(runtime.NumCPU()), nil
}

type poolPolicy struct {
	workers int
}

func (poolPolicy) Kind() Kind { return KindPlatformOptimized }

func (p poolPolicy) NewContext() (ExecutionContext, error) {
	return newPoolContext(p.workers), nil
}

// poolContext dispatches tasks across a fixed pool of completion workers.
type poolContext struct {
	workers int
	tasks   chan Task
	closed  chan struct{}
	once    sync.Once
}

func newPoolContext(workers int) *poolContext {
	if workers < 1 {
		workers = 1
	}
	return &poolContext{
		workers: workers,
		tasks:   make(chan Task, defaultQueueDepth),
		closed:  make(chan struct{}),
	}
}

func (c *poolContext) Kind() Kind { return KindPlatformOptimized }

func (c *poolContext) Submit(t Task) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.tasks <- t:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}

func (c *poolContext) Run(ctx context.Context) error {
	done := make(chan struct{})
	var wg sync.WaitGroup
	for range c.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case t := <-c.tasks:
					t()
				}
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-c.closed:
	}
	close(done)
	wg.Wait()
	return err
}

func (c *poolContext) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

var (
	_ Descriptor       = windowsDescriptor{}
	_ Policy           = poolPolicy{}
	_ ExecutionContext = (*poolContext)(nil)
)
