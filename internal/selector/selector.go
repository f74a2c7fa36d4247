// Package selector picks the best available execution backend for the
// host platform and wires it into the process-wide runtime.
package selector

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/seantiz/runloop/internal/loop"
)

// environment is the host surface detection reads. Tests substitute it to
// exercise every platform path on any host.
type environment struct {
	goos    string
	version string
	probe   func() bool
}

func hostEnvironment() environment {
	return environment{
		goos:    runtime.GOOS,
		version: runtime.Version(),
		probe:   loop.HighPerformanceAvailable,
	}
}

// Selection is the machine-consumable snapshot of the backend decision.
type Selection struct {
	Platform          string    `json:"platform"`
	Backend           loop.Kind `json:"backend"`
	OptionalAvailable bool      `json:"optional_backend_available"`
	RuntimeVersion    string    `json:"runtime_version"`
}

// Selector inspects the host once at construction and exposes the chosen
// backend. Priority, highest first: platform-optimized on Windows,
// high-performance where the probe succeeds, default otherwise. The
// decision is fixed for the Selector's lifetime.
type Selector struct {
	env      environment
	platform loop.Platform
	desc     loop.Descriptor
	rt       *loop.Runtime
	logger   *slog.Logger
}

// New detects the host platform, probes for the optional high-performance
// backend where relevant, and returns a Selector bound to rt. Probe
// failures are absorbed here with an advisory log line; the default
// backend is always a safe terminal fallback.
func New(rt *loop.Runtime, logger *slog.Logger) *Selector {
	return newSelector(rt, logger, hostEnvironment())
}

func newSelector(rt *loop.Runtime, logger *slog.Logger, env environment) *Selector {
	s := &Selector{
		env:      env,
		platform: loop.Classify(env.goos),
		rt:       rt,
		logger:   logger,
	}

	switch {
	case s.platform.Family == loop.FamilyWindows:
		// No probe on Windows: the platform backend wins unconditionally.
		s.desc = loop.NewPlatformOptimizedDescriptor(env.version)
	case env.probe():
		s.desc = loop.NewHighPerformanceDescriptor()
	default:
		s.logger.Warn("high-performance backend unavailable, using default",
			"platform", s.platform.Name)
		s.desc = loop.NewDefaultDescriptor()
	}

	selectedBackend.WithLabelValues(s.platform.Name, string(s.desc.Kind())).Set(1)
	return s
}

// Kind returns the chosen backend kind.
func (s *Selector) Kind() loop.Kind {
	return s.desc.Kind()
}

// Platform returns the detected host platform.
func (s *Selector) Platform() loop.Platform {
	return s.platform
}

// Configure builds the selected backend's policy and a fresh execution
// context, installs both in the runtime, and returns the context. It may
// be called again to replace the default; closing the replaced context
// stays with the caller. Construction errors propagate unretried: they
// mean the environment changed after detection.
func (s *Selector) Configure() (loop.ExecutionContext, error) {
	policy, err := s.desc.MakePolicy()
	if err != nil {
		return nil, fmt.Errorf("make %s policy: %w", s.desc.Kind(), err)
	}
	ec, err := s.desc.MakeContext()
	if err != nil {
		return nil, fmt.Errorf("make %s context: %w", s.desc.Kind(), err)
	}

	// Install only after both constructions succeed, so a failure never
	// leaves the policy and the default context out of step.
	s.rt.InstallPolicy(policy)
	s.rt.Install(ec)

	configureTotal.WithLabelValues(string(s.desc.Kind())).Inc()
	s.logger.Info("execution backend configured",
		"platform", s.platform.Name,
		"backend", s.desc.Kind(),
	)
	return ec, nil
}

// Describe reports the decision made at construction. Platform and
// backend never change; optional-backend availability is re-probed live
// on each call for diagnostics only, independent of the chosen backend.
func (s *Selector) Describe() Selection {
	avail := s.env.probe()
	if avail {
		optionalAvailable.Set(1)
	} else {
		optionalAvailable.Set(0)
	}

	return Selection{
		Platform:          s.platform.Name,
		Backend:           s.desc.Kind(),
		OptionalAvailable: avail,
		RuntimeVersion:    s.env.version,
	}
}
