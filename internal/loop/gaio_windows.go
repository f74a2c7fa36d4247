//go:build windows

package loop

// The gaio watcher has no Windows implementation, so the high-performance
// backend is never available on Windows builds. Selection never chooses
// it there; these stubs keep the package API uniform.

// HighPerformanceAvailable always reports false on Windows.
func HighPerformanceAvailable() bool {
	return false
}

// NewHighPerformanceDescriptor returns a descriptor whose constructors
// fail with ErrUnavailable.
func NewHighPerformanceDescriptor() Descriptor {
	return unavailableDescriptor{}
}

type unavailableDescriptor struct{}

func (unavailableDescriptor) Kind() Kind { return KindHighPerformance }

func (unavailableDescriptor) MakePolicy() (Policy, error) {
	return nil, ErrUnavailable
}

func (unavailableDescriptor) MakeContext() (ExecutionContext, error) {
	return nil, ErrUnavailable
}

var _ Descriptor = unavailableDescriptor{}
