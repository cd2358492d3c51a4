package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/homekeep/internal/dashboard"
)

type DashboardHandler struct {
	base
	svc *dashboard.Service
}

func NewDashboardHandler(svc *dashboard.Service, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{base: base{logger: logger}, svc: svc}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, err, "load dashboard", "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
