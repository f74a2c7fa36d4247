package loop

import (
	"context"
	"sync"
)

// defaultQueueDepth bounds the submit queue of the built-in dispatchers.
const defaultQueueDepth = 128

// NewDefaultDescriptor returns the portable fallback backend. It has no
// platform or dependency requirements and never fails to construct.
func NewDefaultDescriptor() Descriptor {
	return defaultDescriptor{}
}

type defaultDescriptor struct{}

func (defaultDescriptor) Kind() Kind { return KindDefault }

func (defaultDescriptor) MakePolicy() (Policy, error) {
	return serialPolicy{kind: KindDefault}, nil
}

func (defaultDescriptor) MakeContext() (ExecutionContext, error) {
	return newSerialContext(KindDefault), nil
}

type serialPolicy struct {
	kind Kind
}

func (p serialPolicy) Kind() Kind { return p.kind }

func (p serialPolicy) NewContext() (ExecutionContext, error) {
	return newSerialContext(p.kind), nil
}

// serialContext dispatches tasks one at a time on the goroutine that
// calls Run. It backs both the default backend and the pre-go1.21
// platform-optimized variant.
type serialContext struct {
	kind   Kind
	tasks  chan Task
	closed chan struct{}
	once   sync.Once
}

func newSerialContext(kind Kind) *serialContext {
	return &serialContext{
		kind:   kind,
		tasks:  make(chan Task, defaultQueueDepth),
		closed: make(chan struct{}),
	}
}

func (c *serialContext) Kind() Kind { return c.kind }

func (c *serialContext) Submit(t Task) error {
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

func (c *serialContext) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case t := <-c.tasks:
			t()
		}
	}
}

func (c *serialContext) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

var (
	_ Descriptor       = defaultDescriptor{}
	_ Policy           = serialPolicy{}
	_ ExecutionContext = (*serialContext)(nil)
)
