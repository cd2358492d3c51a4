package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/note"
	"github.com/dukerupert/homekeep/internal/websocket"
)

type NoteHandler struct {
	base
	svc *note.Service
}

func NewNoteHandler(svc *note.Service, hub websocket.Broadcaster, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

type noteCreateRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"max=100000"`
	HomeAreaID string `json:"home_area_id"`
}

func (r *noteCreateRequest) normalize() {
	trim(&r.Title)
	trim(&r.HomeAreaID)
}

type notePatchRequest struct {
	Title      *string `json:"title" validate:"omitnil,min=1,max=200"`
	Content    *string `json:"content" validate:"omitnil,max=100000"`
	HomeAreaID *string `json:"home_area_id"`
}

func (r *notePatchRequest) normalize() {
	trim(r.Title)
	trim(r.HomeAreaID)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, err, "list notes", "note")
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Get(r.Context(), idParam(r))
	if err != nil {
		h.fail(w, err, "get note", "note")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Markdown(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Markdown(r.Context(), idParam(r))
	if err != nil {
		h.fail(w, err, "export note", "note")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc)
}

func (h *NoteHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Count(r.Context())
	if err != nil {
		h.fail(w, err, "count notes", "note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteCreateRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.Create(r.Context(), model.NewNote{
		Title:      req.Title,
		Content:    req.Content,
		HomeAreaID: req.HomeAreaID,
	})
	if err != nil {
		h.fail(w, err, "create note", "note")
		return
	}
	h.broadcast(websocket.EntityNote, "created", n.ID, nil)
	writeJSON(w, http.StatusCreated, n)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req notePatchRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.Update(r.Context(), idParam(r), model.NotePatch{
		Title:      req.Title,
		Content:    req.Content,
		HomeAreaID: req.HomeAreaID,
	})
	if err != nil {
		h.fail(w, err, "update note", "note")
		return
	}
	h.broadcast(websocket.EntityNote, "updated", n.ID, nil)
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "delete note", "note")
		return
	}
	h.broadcast(websocket.EntityNote, "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
