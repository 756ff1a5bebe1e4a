package domain

import "time"

type CycleStatus string

const (
	CycleStatusSucceeded CycleStatus = "succeeded"
	CycleStatusFailed    CycleStatus = "failed"
)

type SchedulerState string

const (
	SchedulerStateIdle    SchedulerState = "idle"
	SchedulerStateRunning SchedulerState = "running"
	SchedulerStateStopped SchedulerState = "stopped"
)

// CycleOutcome is the operational record of the most recent finished cycle.
type CycleOutcome struct {
	CycleID    string
	Status     CycleStatus
	Stage      string
	Error      *string
	StartedAt  time.Time
	FinishedAt time.Time
}

type SchedulerStatus struct {
	State     SchedulerState
	Interval  string
	LastCycle *CycleOutcome
}
