package domain

// Framing is the attribution given to the model when it is asked to rate an artifact
type Framing string

const (
	// FramingSelf tells the model it authored the artifact
	FramingSelf Framing = "self"
	// FramingOther tells the model a different model authored the artifact
	FramingOther Framing = "other"
)

// IsValid checks if the framing is valid
func (f Framing) IsValid() bool {
	switch f {
	case FramingSelf, FramingOther:
		return true
	}
	return false
}

// Framings lists the framings every trial is scored under, in scoring order
var Framings = [2]Framing{FramingSelf, FramingOther}

// RunMode selects how the orchestrator executes trials
type RunMode string

const (
	RunModeSequential RunMode = "sequential"
	RunModeConcurrent RunMode = "concurrent"
)

// IsValid checks if the run mode is valid
func (m RunMode) IsValid() bool {
	switch m {
	case RunModeSequential, RunModeConcurrent:
		return true
	}
	return false
}

// ArtifactSource records how an artifact's fields were obtained
type ArtifactSource string

const (
	// ArtifactSourceModel means every field was parsed from the model output
	ArtifactSourceModel ArtifactSource = "model"
	// ArtifactSourcePartial means at least one field was filled by fallback
	ArtifactSourcePartial ArtifactSource = "partial"
	// ArtifactSourceFallback means the model call failed and every field is a fallback
	ArtifactSourceFallback ArtifactSource = "fallback"
)

// RunStatus represents the lifecycle state of an experiment run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether the run can no longer change state
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}
