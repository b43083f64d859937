package diorama

// State is the pipeline stage the builder last entered.
type State int

const (
	Idle State = iota
	Sampling
	MeshBuilding
	Texturing
	BoxBuilding
	Ready
)

var stateNames = [...]string{"idle", "sampling", "mesh-building", "texturing", "box-building", "ready"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Outcome is the result of one Update.
type Outcome int

const (
	// OutcomeReady means the update ran to completion.
	OutcomeReady Outcome = iota
	// OutcomeAborted means a newer update superseded this one. Its results
	// were discarded.
	OutcomeAborted
	// OutcomeFailed means a stage failed; previous graphics were kept.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeAborted:
		return "aborted"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}
