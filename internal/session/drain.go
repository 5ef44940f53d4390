package session

import "sync/atomic"

// DrainState is the one-way draining flag of a session. It only ever
// transitions from false to true; a new session starts fresh. While
// draining, the gated send path refuses new downstream messages but
// acknowledgments keep flowing.
type DrainState struct {
	draining atomic.Bool
}

// IsDraining reports whether the session is draining.
func (d *DrainState) IsDraining() bool {
	return d.draining.Load()
}

// BeginDraining marks the session as draining. Calling it again is a no-op.
func (d *DrainState) BeginDraining() {
	d.draining.Store(true)
}
