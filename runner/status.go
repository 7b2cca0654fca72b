package runner

// Status is the state of a runner.
type Status int

const (
	Idle Status = iota
	Running
	// Completed runs stopped because nothing could fire.
	Completed
	// Exhausted runs stopped at the firing limit with something still able to fire.
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Done reports whether s is a terminal status.
func (s Status) Done() bool {
	return s == Completed || s == Exhausted
}
