package pipeline

import "fmt"

// State is the position of one document in the screening state machine.
type State int

const (
	StatePending State = iota
	StateTextExtracted
	// StateSkipped ends documents that failed the data-quality gate.
	StateSkipped
	StateGenerated
	StateRetryGenerated
	StateValidated
	StatePersisted
	// StateAbandoned ends documents that exhausted retries or could not be persisted.
	StateAbandoned
	// StateDuplicate ends documents already screened for the opening.
	StateDuplicate
)

var stateNames = map[State]string{
	StatePending:        "pending",
	StateTextExtracted:  "text_extracted",
	StateSkipped:        "skipped",
	StateGenerated:      "generated",
	StateRetryGenerated: "retry_generated",
	StateValidated:      "validated",
	StatePersisted:      "persisted",
	StateAbandoned:      "abandoned",
	StateDuplicate:      "duplicate",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateSkipped, StatePersisted, StateAbandoned, StateDuplicate:
		return true
	default:
		return false
	}
}
