package loop

// Runtime is the process-wide execution slot: the installed construction
// policy and the current default context. Create one at startup and pass
// it to whatever needs the default loop. It does no locking; installs are
// last-writer-wins and must be serialized by the caller, normally by
// configuring once before any tasks are scheduled.
type Runtime struct {
	policy  Policy
	current ExecutionContext
}

// NewRuntime returns an empty runtime slot.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// InstallPolicy replaces the process-wide construction policy.
func (r *Runtime) InstallPolicy(p Policy) {
	r.policy = p
}

// Policy returns the installed policy, or nil before installation.
func (r *Runtime) Policy() Policy {
	return r.policy
}

// Install makes ec the current default context and returns the previous
// one. Closing the replaced context is the caller's responsibility.
func (r *Runtime) Install(ec ExecutionContext) (prev ExecutionContext) {
	prev = r.current
	r.current = ec
	return prev
}

// Current returns the default context, or nil before the first Install.
func (r *Runtime) Current() ExecutionContext {
	return r.current
}

// NewContext constructs a fresh, unstarted context from the installed
// policy.
func (r *Runtime) NewContext() (ExecutionContext, error) {
	if r.policy == nil {
		return nil, ErrNoPolicy
	}
	return r.policy.NewContext()
}
