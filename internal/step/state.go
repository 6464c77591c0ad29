package step

import "fmt"

// State is the lifecycle state of a running step.
type State int32

const (
	Idle State = iota
	Running
	Finished
	Failed
	Stopped
)

var stateNames = [...]string{"idle", "running", "finished", "failed", "stopped"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == Finished || s == Failed || s == Stopped
}
