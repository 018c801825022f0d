package models

// StepStatus is the status reported by the execution engine for a step.
type StepStatus string

const (
	StepCreated   StepStatus = "created"
	StepQueued    StepStatus = "queued"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepCancelled StepStatus = "cancelled"
)

// Act is one engine execution: an ordered list of sequences.
type Act struct {
	ID        string     `json:"id"`
	Sequences []Sequence `json:"sequences"`
}

type Sequence struct {
	ID     string     `json:"id"`
	Status StepStatus `json:"status,omitempty"`
	Steps  []Step     `json:"steps"`
}

type Step struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
}
