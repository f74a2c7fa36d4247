//go:build !windows

package loop

import (
	"context"
	"fmt"
	"sync"

	"github.com/xtaci/gaio"
)

// HighPerformanceAvailable probes the gaio backend by creating and
// immediately closing a watcher. The check is idempotent and has no side
// effects beyond the probe itself.
func HighPerformanceAvailable() bool {
	w, err := gaio.NewWatcher()
	if err != nil {
		return false
	}
	w.Close()
	return true
}

// NewHighPerformanceDescriptor returns the gaio-backed proactor backend.
// Policy and context construction fail only if a watcher cannot be
// created, which selection has already ruled out on the happy path; such
// a failure means the environment changed after detection.
func NewHighPerformanceDescriptor() Descriptor {
	return gaioDescriptor{}
}

type gaioDescriptor struct{}

func (gaioDescriptor) Kind() Kind { return KindHighPerformance }

func (gaioDescriptor) MakePolicy() (Policy, error) {
	return gaioPolicy{}, nil
}

func (gaioDescriptor) MakeContext() (ExecutionContext, error) {
	return newGaioContext()
}

type gaioPolicy struct{}

func (gaioPolicy) Kind() Kind { return KindHighPerformance }

func (gaioPolicy) NewContext() (ExecutionContext, error) {
	return newGaioContext()
}

// CompletionHandler receives completed asynchronous I/O operations from
// the watcher.
type CompletionHandler func(gaio.OpResult)

// GaioContext is the high-performance execution context. Alongside the
// task queue it owns a gaio watcher; completed I/O operations are
// delivered to the registered CompletionHandler while Run is active.
type GaioContext struct {
	watcher *gaio.Watcher
	tasks   chan Task
	closed  chan struct{}
	once    sync.Once

	mu      sync.RWMutex
	handler CompletionHandler
}

func newGaioContext() (*GaioContext, error) {
	w, err := gaio.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &GaioContext{
		watcher: w,
		tasks:   make(chan Task, defaultQueueDepth),
		closed:  make(chan struct{}),
	}, nil
}

func (c *GaioContext) Kind() Kind { return KindHighPerformance }

// Watcher exposes the underlying gaio watcher for submitting
// asynchronous reads and writes.
func (c *GaioContext) Watcher() *gaio.Watcher {
	return c.watcher
}

// OnCompletion registers the handler invoked for each completed I/O
// operation. Register before calling Run; completions that arrive with no
// handler registered are dropped.
func (c *GaioContext) OnCompletion(h CompletionHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *GaioContext) Submit(t Task) error {
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

func (c *GaioContext) Run(ctx context.Context) error {
	pumpErr := make(chan error, 1)
	go c.pump(pumpErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case err := <-pumpErr:
			select {
			case <-c.closed:
				return nil
			default:
			}
			return fmt.Errorf("watcher: %w", err)
		case t := <-c.tasks:
			t()
		}
	}
}

// pump drains completed operations from the watcher until it is closed.
func (c *GaioContext) pump(errCh chan<- error) {
	for {
		results, err := c.watcher.WaitIO()
		if err != nil {
			errCh <- err
			return
		}
		c.mu.RLock()
		h := c.handler
		c.mu.RUnlock()
		if h == nil {
			continue
		}
		for _, res := range results {
			h(res)
		}
	}
}

func (c *GaioContext) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		err = c.watcher.Close()
	})
	return err
}

var (
	_ Descriptor       = gaioDescriptor{}
	_ Policy           = gaioPolicy{}
	_ ExecutionContext = (*GaioContext)(nil)
)
