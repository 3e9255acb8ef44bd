package api

import "net/http"

// StatsProvider is satisfied by the submission service.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves /stats.
type StatsHandler struct {
	provider StatsProvider
}

func NewStatsHandler(p StatsProvider) *StatsHandler {
	return &StatsHandler{provider: p}
}

// HandleStats writes the service's queue, worker and dedupe counters as
// JSON. Only GET is served.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	stats := h.provider.GetStats()
	writeJSON(w, http.StatusOK, stats)
}
