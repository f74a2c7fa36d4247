package selector

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/seantiz/runloop/internal/loop"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// countingProbe returns a probe function with a fixed result and a call
// counter, so tests can assert when the probe is (not) consulted.
func countingProbe(result bool) (func() bool, *int) {
	calls := 0
	return func() bool {
		calls++
		return result
	}, &calls
}

func TestWindowsSelectsPlatformOptimizedWithoutProbing(t *testing.T) {
	probe, calls := countingProbe(true)
	env := environment{goos: "windows", version: "go1.25.5", probe: probe}

	s := newSelector(loop.NewRuntime(), discardLogger(), env)

	if s.Kind() != loop.KindPlatformOptimized {
		t.Errorf("Kind() = %q, want %q", s.Kind(), loop.KindPlatformOptimized)
	}
	if *calls != 0 {
		t.Errorf("probe called %d times during detection, want 0", *calls)
	}
}

func TestWindowsDescribeStillReportsProbeResult(t *testing.T) {
	probe, calls := countingProbe(true)
	env := environment{goos: "windows", version: "go1.25.5", probe: probe}

	s := newSelector(loop.NewRuntime(), discardLogger(), env)
	sel := s.Describe()

	if sel.Backend != loop.KindPlatformOptimized {
		t.Errorf("Backend = %q, want %q", sel.Backend, loop.KindPlatformOptimized)
	}
	if !sel.OptionalAvailable {
		t.Error("OptionalAvailable = false, want true (diagnostic probe is independent)")
	}
	if *calls != 1 {
		t.Errorf("probe called %d times, want 1 (Describe only)", *calls)
	}
}

func TestUnixWithProbeSelectsHighPerformance(t *testing.T) {
	probe, calls := countingProbe(true)
	env := environment{goos: "linux", version: "go1.25.5", probe: probe}

	s := newSelector(loop.NewRuntime(), discardLogger(), env)

	if s.Kind() != loop.KindHighPerformance {
		t.Errorf("Kind() = %q, want %q", s.Kind(), loop.KindHighPerformance)
	}
	if *calls != 1 {
		t.Errorf("probe called %d times during detection, want exactly 1", *calls)
	}

	sel := s.Describe()
	if sel.Platform != "linux" {
		t.Errorf("Platform = %q, want %q", sel.Platform, "linux")
	}
	if sel.Backend != loop.KindHighPerformance {
		t.Errorf("Backend = %q, want %q", sel.Backend, loop.KindHighPerformance)
	}
	if !sel.OptionalAvailable {
		t.Error("OptionalAvailable = false, want true")
	}
	if sel.RuntimeVersion != "go1.25.5" {
		t.Errorf("RuntimeVersion = %q, want %q", sel.RuntimeVersion, "go1.25.5")
	}
}

func TestUnixWithoutProbeFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	probe, _ := countingProbe(false)
	env := environment{goos: "linux", version: "go1.25.5", probe: probe}

	s := newSelector(loop.NewRuntime(), logger, env)

	if s.Kind() != loop.KindDefault {
		t.Errorf("Kind() = %q, want %q", s.Kind(), loop.KindDefault)
	}

	advisories := strings.Count(buf.String(), "high-performance backend unavailable")
	if advisories != 1 {
		t.Errorf("advisory logged %d times, want exactly 1\nlog: %s", advisories, buf.String())
	}

	if sel := s.Describe(); sel.Backend != loop.KindDefault {
		t.Errorf("Describe().Backend = %q, want %q", sel.Backend, loop.KindDefault)
	}
}

func TestUnknownPlatformTakesProbePath(t *testing.T) {
	probe, calls := countingProbe(false)
	env := environment{goos: "plan9", version: "go1.25.5", probe: probe}

	s := newSelector(loop.NewRuntime(), discardLogger(), env)

	if s.Kind() != loop.KindDefault {
		t.Errorf("Kind() = %q, want %q", s.Kind(), loop.KindDefault)
	}
	if *calls != 1 {
		t.Errorf("probe called %d times, want 1", *calls)
	}
	if s.Platform().Family != loop.FamilyUnknown {
		t.Errorf("Family = %q, want %q", s.Platform().Family, loop.FamilyUnknown)
	}
}

func TestDescribeStableAcrossConfigure(t *testing.T) {
	probe, _ := countingProbe(false)
	env := environment{goos: "linux", version: "go1.25.5", probe: probe}
	rt := loop.NewRuntime()

	s := newSelector(rt, discardLogger(), env)

	before := s.Describe()
	if _, err := s.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	after := s.Describe()

	if before.Platform != after.Platform || before.Backend != after.Backend {
		t.Errorf("Describe changed across Configure: before %+v, after %+v", before, after)
	}
}

func TestConfigureInstallsPolicyAndContext(t *testing.T) {
	probe, calls := countingProbe(false)
	env := environment{goos: "freebsd", version: "go1.25.5", probe: probe}
	rt := loop.NewRuntime()

	s := newSelector(rt, discardLogger(), env)

	ec, err := s.Configure()
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer ec.Close()

	if ec == nil {
		t.Fatal("Configure returned nil context")
	}
	if rt.Current() != ec {
		t.Error("runtime default is not the returned context")
	}
	if rt.Policy() == nil || rt.Policy().Kind() != loop.KindDefault {
		t.Error("runtime policy not installed with selected kind")
	}
	if *calls != 1 {
		t.Errorf("probe called %d times, want 1 (detection only, Configure never re-probes)", *calls)
	}
}

func TestConfigureReplacesDefault(t *testing.T) {
	probe, _ := countingProbe(false)
	env := environment{goos: "linux", version: "go1.25.5", probe: probe}
	rt := loop.NewRuntime()

	s := newSelector(rt, discardLogger(), env)

	first, err := s.Configure()
	if err != nil {
		t.Fatalf("first Configure: %v", err)
	}
	second, err := s.Configure()
	if err != nil {
		t.Fatalf("second Configure: %v", err)
	}

	if first == second {
		t.Error("Configure returned the same context twice, want fresh instances")
	}
	if rt.Current() != second {
		t.Error("runtime default is not the most recently configured context")
	}

	// Previous context stays the caller's to close.
	if err := first.Close(); err != nil {
		t.Errorf("close replaced context: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Errorf("close current context: %v", err)
	}
}

func TestWindowsConfigureProducesPlatformOptimizedContext(t *testing.T) {
	probe, _ := countingProbe(false)
	env := environment{goos: "windows", version: "go1.25.5", probe: probe}
	rt := loop.NewRuntime()

	s := newSelector(rt, discardLogger(), env)

	ec, err := s.Configure()
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer ec.Close()

	if ec.Kind() != loop.KindPlatformOptimized {
		t.Errorf("context kind = %q, want %q", ec.Kind(), loop.KindPlatformOptimized)
	}

	// The installed policy constructs contexts of the same kind.
	fresh, err := rt.NewContext()
	if err != nil {
		t.Fatalf("NewContext from installed policy: %v", err)
	}
	defer fresh.Close()
	if fresh.Kind() != loop.KindPlatformOptimized {
		t.Errorf("policy context kind = %q, want %q", fresh.Kind(), loop.KindPlatformOptimized)
	}
}

// brokenDescriptor simulates a backend that became unusable between
// detection and configuration.
type brokenDescriptor struct {
	policyErr  error
	contextErr error
}

func (brokenDescriptor) Kind() loop.Kind { return loop.KindHighPerformance }

func (d brokenDescriptor) MakePolicy() (loop.Policy, error) {
	if d.policyErr != nil {
		return nil, d.policyErr
	}
	// A real policy of a kind the tests can tell apart from the one
	// already installed.
	return loop.NewPlatformOptimizedDescriptor("go1.20.14").MakePolicy()
}

func (d brokenDescriptor) MakeContext() (loop.ExecutionContext, error) {
	return nil, d.contextErr
}

func TestConfigureFailureLeavesInstalledPairUntouched(t *testing.T) {
	sentinel := errors.New("backend init failed")
	probe, _ := countingProbe(false)
	env := environment{goos: "linux", version: "go1.25.5", probe: probe}
	rt := loop.NewRuntime()

	// Install a known-good pair first.
	good := newSelector(rt, discardLogger(), env)
	prevCtx, err := good.Configure()
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer prevCtx.Close()
	prevPolicy := rt.Policy()

	cases := []struct {
		name string
		desc loop.Descriptor
	}{
		{"policy construction fails", brokenDescriptor{policyErr: sentinel}},
		{"context construction fails", brokenDescriptor{contextErr: sentinel}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bad := &Selector{
				env:      env,
				platform: loop.Classify(env.goos),
				desc:     tc.desc,
				rt:       rt,
				logger:   discardLogger(),
			}

			ec, err := bad.Configure()
			if !errors.Is(err, sentinel) {
				t.Fatalf("Configure error = %v, want wrapped %v", err, sentinel)
			}
			if ec != nil {
				t.Error("Configure returned a context alongside an error")
			}
			if rt.Policy() != prevPolicy {
				t.Error("failed Configure replaced the installed policy")
			}
			if rt.Current() != prevCtx {
				t.Error("failed Configure replaced the installed context")
			}
		})
	}
}

func TestConfigureFailureOnFreshRuntime(t *testing.T) {
	sentinel := errors.New("backend init failed")
	rt := loop.NewRuntime()

	bad := &Selector{
		platform: loop.Classify("linux"),
		desc:     brokenDescriptor{policyErr: sentinel},
		rt:       rt,
		logger:   discardLogger(),
	}

	if _, err := bad.Configure(); !errors.Is(err, sentinel) {
		t.Fatalf("Configure error = %v, want wrapped %v", err, sentinel)
	}
	if rt.Policy() != nil {
		t.Error("failed Configure installed a policy")
	}
	if rt.Current() != nil {
		t.Error("failed Configure installed a context")
	}
	if _, err := rt.NewContext(); !errors.Is(err, loop.ErrNoPolicy) {
		t.Errorf("NewContext error = %v, want %v", err, loop.ErrNoPolicy)
	}
}

func TestNewUsesHostEnvironment(t *testing.T) {
	rt := loop.NewRuntime()
	s := New(rt, discardLogger())

	sel := s.Describe()
	if sel.Platform == "" {
		t.Error("Platform is empty")
	}
	if sel.RuntimeVersion == "" {
		t.Error("RuntimeVersion is empty")
	}
	switch sel.Backend {
	case loop.KindHighPerformance, loop.KindPlatformOptimized, loop.KindDefault:
	default:
		t.Errorf("unexpected backend %q", sel.Backend)
	}
}
