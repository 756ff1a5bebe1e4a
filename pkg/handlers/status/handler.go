package status

import (
	"encoding/json"
	"net/http"

	"github.com/de-tools/benford-monitor/pkg/adapters"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Provider reports the scheduler's operational state.
type Provider interface {
	Status() domain.SchedulerStatus
}

type Handler struct {
	provider Provider
}

func NewHandler(provider Provider) *Handler {
	return &Handler{provider: provider}
}

// Health answers 200 while the scheduler loop is alive, whatever the last cycle's outcome,
// and 503 once it has stopped.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	s := h.provider.Status()
	code := http.StatusOK
	if s.State == domain.SchedulerStateStopped {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(adapters.MapDomainSchedulerStatusToAPI(s)); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode scheduler status")
	}
}
