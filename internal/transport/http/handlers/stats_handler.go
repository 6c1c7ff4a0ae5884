package handlers

import (
	"net/http"

	statsvc "github.com/DevAniketIT/Playbharat/internal/services/stats"
	httperrors "github.com/DevAniketIT/Playbharat/internal/transport/http/errors"
)

type StatsHandler struct {
	service *statsvc.Service
}

func NewStatsHandler(service *statsvc.Service) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}

	overview, err := h.service.Overview(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to build moderation overview")
		return
	}
	httperrors.Write(w, http.StatusOK, overview)
}
