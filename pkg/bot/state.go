package bot

// State names one node of the control loop's state machine (§4.7).
type State string

const (
	StateStarting   State = "starting"
	StateFlat       State = "flat"
	StateOpening    State = "opening"
	StateInPosition State = "in_position"
	StateClosing    State = "closing"
	StatePaused     State = "paused"
	StateStopping   State = "stopping"
)

func (s State) String() string { return string(s) }
