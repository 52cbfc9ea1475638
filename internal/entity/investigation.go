package entity

// Investigation status values this subsystem is allowed to write.
const (
	InvestigationCompleted = "COMPLETED"
	InvestigationFailed    = "FAILED"
)
