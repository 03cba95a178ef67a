package recorder

// State represents recording session state
type State int

const (
	// Idle - nothing started
	Idle State = iota
	// Recording - capture is running
	Recording
	// Paused - capture is suspended, chunks are kept
	Paused
	// Stopped - final state
	Stopped
)

var (
	stateName = map[State]string{Idle: "idle", Recording: "recording",
		Paused: "paused", Stopped: "stopped"}
	nameState = map[string]State{"idle": Idle, "recording": Recording,
		"paused": Paused, "stopped": Stopped}
)

func (st State) String() string {
	return stateName[st]
}

// Active returns true while the session accepts pause, resume or stop
func (st State) Active() bool {
	return st == Recording || st == Paused
}

// From returns state obj from string
func From(st string) State {
	return nameState[st]
}
