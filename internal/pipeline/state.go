package pipeline

// State is a step of the frame processing loop.
type State int32

const (
	AwaitingFrame State = iota
	DetectingIdentities
	UpdatingPresence
	EvaluatingViolations
	PersistingViolations
	AnnotatingFrame
	SessionComplete
	SessionFailed
	SessionCancelled
)

var stateNames = [...]string{
	AwaitingFrame:        "AwaitingFrame",
	DetectingIdentities:  "DetectingIdentities",
	UpdatingPresence:     "UpdatingPresence",
	EvaluatingViolations: "EvaluatingViolations",
	PersistingViolations: "PersistingViolations",
	AnnotatingFrame:      "AnnotatingFrame",
	SessionComplete:      "SessionComplete",
	SessionFailed:        "SessionFailed",
	SessionCancelled:     "SessionCancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == SessionComplete || s == SessionFailed || s == SessionCancelled
}

// MarshalText lets states appear by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
