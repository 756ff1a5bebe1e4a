package api

import "time"

type CycleOutcome struct {
	CycleID    string    `json:"cycle_id"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type Status struct {
	State     string        `json:"state"`
	Interval  string        `json:"interval"`
	LastCycle *CycleOutcome `json:"last_cycle,omitempty"`
}
