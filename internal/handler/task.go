package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/task"
	"github.com/dukerupert/homekeep/internal/websocket"
)

type TaskHandler struct {
	base
	svc *task.Service
}

func NewTaskHandler(svc *task.Service, hub websocket.Broadcaster, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

type taskCreateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	HomeAreaID  string `json:"home_area_id"`
}

func (r *taskCreateRequest) normalize() {
	trim(&r.Title)
	trim(&r.Description)
	trim(&r.HomeAreaID)
}

type taskPatchRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	HomeAreaID  *string `json:"home_area_id"`
	Completed   *bool   `json:"completed"`
}

func (r *taskPatchRequest) normalize() {
	trim(r.Title)
	trim(r.Description)
	trim(r.HomeAreaID)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, err, "list tasks", "task")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskCreateRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), model.NewTask{
		Title:       req.Title,
		Description: req.Description,
		HomeAreaID:  req.HomeAreaID,
	})
	if err != nil {
		h.fail(w, err, "create task", "task")
		return
	}
	h.broadcast(websocket.EntityTask, "created", t.ID, nil)
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req taskPatchRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Update(r.Context(), idParam(r), model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		HomeAreaID:  req.HomeAreaID,
		Completed:   req.Completed,
	})
	if err != nil {
		h.fail(w, err, "update task", "task")
		return
	}
	h.broadcast(websocket.EntityTask, "updated", t.ID, nil)
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "delete task", "task")
		return
	}
	h.broadcast(websocket.EntityTask, "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.MarkComplete(r.Context(), idParam(r))
	if err != nil {
		h.fail(w, err, "complete task", "task")
		return
	}
	h.broadcast(websocket.EntityTask, "completed", t.ID, nil)
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Pending(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.MarkPending(r.Context(), idParam(r))
	if err != nil {
		h.fail(w, err, "mark task pending", "task")
		return
	}
	h.broadcast(websocket.EntityTask, "reopened", t.ID, nil)
	writeJSON(w, http.StatusOK, t)
}
