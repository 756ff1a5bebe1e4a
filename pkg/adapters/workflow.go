package adapters

import (
	"github.com/de-tools/benford-monitor/pkg/models/api"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

func MapDomainCycleOutcomeToAPI(o *domain.CycleOutcome) *api.CycleOutcome {
	if o == nil {
		return nil
	}

	out := &api.CycleOutcome{
		CycleID:    o.CycleID,
		Status:     string(o.Status),
		Stage:      o.Stage,
		StartedAt:  o.StartedAt,
		FinishedAt: o.FinishedAt,
	}
	if o.Error != nil {
		out.Error = *o.Error
	}
	return out
}

func MapDomainSchedulerStatusToAPI(s domain.SchedulerStatus) api.Status {
	return api.Status{
		State:     string(s.State),
		Interval:  s.Interval,
		LastCycle: MapDomainCycleOutcomeToAPI(s.LastCycle),
	}
}
