package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/homekeep/internal/inventory"
	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/websocket"
)

type InventoryHandler struct {
	base
	svc *inventory.Service
}

func NewInventoryHandler(svc *inventory.Service, hub websocket.Broadcaster, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

type inventoryCreateRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Status     string `json:"status" validate:"omitempty,oneof=IN_STOCK OUT_OF_STOCK NOT_NEEDED"`
	HomeAreaID string `json:"home_area_id"`
}

func (r *inventoryCreateRequest) normalize() {
	trim(&r.Name)
	trim(&r.HomeAreaID)
}

// inventoryPatchRequest leaves nil fields untouched. An empty
// home_area_id clears the area.
type inventoryPatchRequest struct {
	Name       *string `json:"name" validate:"omitnil,min=1,max=200"`
	Status     *string `json:"status" validate:"omitnil,oneof=IN_STOCK OUT_OF_STOCK NOT_NEEDED"`
	HomeAreaID *string `json:"home_area_id"`
}

func (r *inventoryPatchRequest) normalize() {
	trim(r.Name)
	trim(r.HomeAreaID)
}

type toggleRequest struct {
	CurrentStatus string `json:"current_status" validate:"omitempty,oneof=IN_STOCK OUT_OF_STOCK NOT_NEEDED"`
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	archived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))
	items, err := h.svc.List(r.Context(), archived)
	if err != nil {
		h.fail(w, err, "list inventory", "inventory item")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventoryCreateRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.svc.Create(r.Context(), model.NewInventoryItem{
		Name:       req.Name,
		Status:     model.InventoryStatus(req.Status),
		HomeAreaID: req.HomeAreaID,
	})
	if err != nil {
		h.fail(w, err, "create inventory item", "inventory item")
		return
	}
	h.broadcast(websocket.EntityInventory, "created", item.ID, nil)
	writeJSON(w, http.StatusCreated, item)
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req inventoryPatchRequest
	if !decode(w, r, &req) {
		return
	}
	patch := model.InventoryPatch{Name: req.Name, HomeAreaID: req.HomeAreaID}
	if req.Status != nil {
		status := model.InventoryStatus(*req.Status)
		patch.Status = &status
	}

	item, err := h.svc.Update(r.Context(), idParam(r), patch)
	if err != nil {
		h.fail(w, err, "update inventory item", "inventory item")
		return
	}
	h.broadcast(websocket.EntityInventory, "updated", item.ID, nil)
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "delete inventory item", "inventory item")
		return
	}
	h.broadcast(websocket.EntityInventory, "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Toggle accepts an optional body carrying the status the caller saw.
func (h *InventoryHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}
	item, err := h.svc.Toggle(r.Context(), idParam(r), model.InventoryStatus(req.CurrentStatus))
	if err != nil {
		h.fail(w, err, "toggle inventory item", "inventory item")
		return
	}
	h.broadcast(websocket.EntityInventory, "toggled", item.ID, map[string]any{"status": item.Status})
	if item.Status == model.InventoryOutOfStock {
		h.broadcast(websocket.EntityShoppingList, "updated", "", nil)
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) MarkNotNeeded(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.MarkNotNeeded(r.Context(), idParam(r))
	if err != nil {
		h.fail(w, err, "mark inventory item not needed", "inventory item")
		return
	}
	h.broadcast(websocket.EntityInventory, "archived", item.ID, nil)
	writeJSON(w, http.StatusOK, item)
}
