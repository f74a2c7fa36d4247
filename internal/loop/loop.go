package loop

import (
	"context"
	"errors"
	"runtime"
	"strings"
)

// Kind identifies one of the fixed backend strategies.
type Kind string

const (
	// KindHighPerformance is the gaio-backed proactor loop, available on
	// unix-like hosts when a watcher can be created.
	KindHighPerformance Kind = "high-performance"

	// KindPlatformOptimized is the Windows dispatch model.
	KindPlatformOptimized Kind = "platform-optimized"

	// KindDefault is the portable fallback, always constructible.
	KindDefault Kind = "default"
)

// Family classifies the host operating system for backend selection.
type Family string

const (
	FamilyWindows Family = "windows"
	FamilyUnix    Family = "unix"
	FamilyUnknown Family = "unknown"
)

// Platform pairs the raw operating system name with its selection family.
type Platform struct {
	Name   string `json:"name"`
	Family Family `json:"family"`
}

// unixLike lists GOOS values that take the unix selection path.
var unixLike = map[string]bool{
	"linux":     true,
	"darwin":    true,
	"freebsd":   true,
	"netbsd":    true,
	"openbsd":   true,
	"dragonfly": true,
	"solaris":   true,
	"illumos":   true,
	"aix":       true,
}

// Classify maps an operating system name (GOOS form, case-insensitive) to
// a Platform. Unrecognized names classify as FamilyUnknown, which
// selection treats like unix: probe first, fall back to the default
// backend.
func Classify(goos string) Platform {
	name := strings.ToLower(goos)
	switch {
	case name == "windows":
		return Platform{Name: name, Family: FamilyWindows}
	case unixLike[name]:
		return Platform{Name: name, Family: FamilyUnix}
	default:
		return Platform{Name: name, Family: FamilyUnknown}
	}
}

// Detect classifies the host platform. The result is constant for the
// process lifetime.
func Detect() Platform {
	return Classify(runtime.GOOS)
}

// Task is a unit of work scheduled onto an execution context.
type Task func()

var (
	// ErrClosed is returned by Submit after the context has been closed.
	ErrClosed = errors.New("execution context closed")

	// ErrUnavailable is returned when a backend cannot be constructed on
	// this build or host.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNoPolicy is returned by Runtime.NewContext before a policy has
	// been installed.
	ErrNoPolicy = errors.New("no policy installed")
)

// ExecutionContext is a runnable scheduling substrate. Contexts are
// created unstarted; Run dispatches submitted tasks until the context is
// closed or ctx is canceled. Installing a context as the process default
// is the caller's job, via Runtime.
type ExecutionContext interface {
	Kind() Kind

	// Submit schedules t to run on the dispatch loop.
	Submit(t Task) error

	// Run processes submitted tasks. It returns nil after Close, or the
	// context error when ctx is canceled first.
	Run(ctx context.Context) error

	Close() error
}

// Policy describes how new execution contexts of one kind are
// constructed. Install one in a Runtime to make it the process-wide
// construction recipe.
type Policy interface {
	Kind() Kind
	NewContext() (ExecutionContext, error)
}

// Descriptor is one backend strategy: it produces the policy for its kind
// and fresh, unstarted execution contexts. Descriptors are stateless and
// immutable; neither operation touches process-wide state.
type Descriptor interface {
	Kind() Kind
	MakePolicy() (Policy, error)
	MakeContext() (ExecutionContext, error)
}
