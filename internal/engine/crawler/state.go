package crawler

// State is the lifecycle of one crawl run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// StopReason explains why a run ended.
type StopReason string

const (
	StopExhausted StopReason = "frontier_exhausted"
	StopMaxCells  StopReason = "max_cells"
	StopTimeout   StopReason = "timeout"
	StopCanceled  StopReason = "canceled"
	StopAborted   StopReason = "aborted"
)
