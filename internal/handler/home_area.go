package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
	"github.com/dukerupert/homekeep/internal/websocket"
)

type HomeAreaHandler struct {
	base
	areas repository.HomeAreas
}

func NewHomeAreaHandler(areas repository.HomeAreas, hub websocket.Broadcaster, logger *slog.Logger) *HomeAreaHandler {
	return &HomeAreaHandler{base: base{hub: hub, logger: logger}, areas: areas}
}

type homeAreaRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (r *homeAreaRequest) normalize() { trim(&r.Name) }

func (h *HomeAreaHandler) List(w http.ResponseWriter, r *http.Request) {
	areas, err := h.areas.List(r.Context())
	if err != nil {
		h.fail(w, err, "list home areas", "home area")
		return
	}
	if areas == nil {
		areas = []model.HomeArea{}
	}
	writeJSON(w, http.StatusOK, areas)
}

func (h *HomeAreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req homeAreaRequest
	if !decode(w, r, &req) {
		return
	}
	area, err := h.areas.Create(r.Context(), req.Name)
	if err != nil {
		h.fail(w, err, "create home area", "home area")
		return
	}
	h.broadcast(websocket.EntityHomeArea, "created", area.ID, nil)
	writeJSON(w, http.StatusCreated, area)
}

func (h *HomeAreaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req homeAreaRequest
	if !decode(w, r, &req) {
		return
	}
	area, err := h.areas.Update(r.Context(), idParam(r), req.Name)
	if err != nil {
		h.fail(w, err, "update home area", "home area")
		return
	}
	h.broadcast(websocket.EntityHomeArea, "updated", area.ID, nil)
	writeJSON(w, http.StatusOK, area)
}

func (h *HomeAreaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if err := h.areas.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "delete home area", "home area")
		return
	}
	h.broadcast(websocket.EntityHomeArea, "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HomeAreaHandler) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := h.areas.Count(r.Context())
	if err != nil {
		h.fail(w, err, "count home areas", "home area")
		return
	}
	writeJSON(w, http.StatusOK, model.HomeAreaStats{Total: n})
}
