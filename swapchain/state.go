package swapchain

// State of a swapchain's lifecycle.
type State int

const (
	// Live swapchains can be acquired from and presented to.
	Live State = iota

	// Recreating swapchains are stale and must be rebuilt before the next
	// frame.
	Recreating
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Recreating:
		return "recreating"
	default:
		return "unknown"
	}
}

// lifecycle tracks the state. Marking a stale swapchain stale again is a no
// op, as is finishing a rebuild which was never started.
type lifecycle struct {
	state State
}

// MarkStale moves a Live swapchain to Recreating. It reports whether the
// state changed.
func (l *lifecycle) MarkStale() bool {
	if l.state == Recreating {
		return false
	}
	l.state = Recreating
	return true
}

// NeedsRebuild reports whether the swapchain is Recreating.
func (l *lifecycle) NeedsRebuild() bool {
	return l.state == Recreating
}

// State returns the current state.
func (l *lifecycle) State() State {
	return l.state
}

// Rebuilt moves the swapchain back to Live.
func (l *lifecycle) Rebuilt() {
	l.state = Live
}
