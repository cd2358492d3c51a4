package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/shopping"
	"github.com/dukerupert/homekeep/internal/websocket"
)

// Wire ids for the virtual draft and its entries.
const (
	VirtualDraftID    = "virtual-draft"
	virtualItemPrefix = "virtual-"
)

type ShoppingHandler struct {
	base
	svc *shopping.Service
}

func NewShoppingHandler(svc *shopping.Service, hub websocket.Broadcaster, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{base: base{hub: hub, logger: logger}, svc: svc}
}

// activeListResponse is the wire form of model.ActiveList.
type activeListResponse struct {
	*model.ShoppingList
	Virtual bool `json:"virtual"`
}

func parseListRef(id string) shopping.ListRef {
	if id == VirtualDraftID {
		return shopping.Virtual()
	}
	return shopping.Persisted(id)
}

func parseItemRef(id string) shopping.ItemRef {
	if inv, ok := strings.CutPrefix(id, virtualItemPrefix); ok && id != VirtualDraftID {
		return shopping.VirtualItem(inv)
	}
	return shopping.PersistedItem(id)
}

func renderActiveList(active model.ActiveList) activeListResponse {
	switch a := active.(type) {
	case model.PersistedList:
		return activeListResponse{ShoppingList: a.List}
	case model.VirtualDraft:
		return activeListResponse{ShoppingList: virtualList(a), Virtual: true}
	}
	panic("unknown active list variant")
}

func virtualList(d model.VirtualDraft) *model.ShoppingList {
	list := &model.ShoppingList{
		ID:     VirtualDraftID,
		Status: model.ShoppingDraft,
		Items:  make([]model.ShoppingListItem, 0, len(d.Items)),
	}
	var created time.Time
	for i := range d.Items {
		inv := d.Items[i]
		list.Items = append(list.Items, model.ShoppingListItem{
			ID:            virtualItemPrefix + inv.ID,
			ListID:        VirtualDraftID,
			Name:          inv.Name,
			InventoryItem: &inv,
			HomeArea:      inv.HomeArea,
			CreatedAt:     inv.CreatedAt,
			UpdatedAt:     inv.UpdatedAt,
		})
		if created.IsZero() || inv.CreatedAt.Before(created) {
			created = inv.CreatedAt
		}
	}
	list.CreatedAt = created
	list.UpdatedAt = created
	return list
}

type addItemRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	InventoryItemID string `json:"inventory_item_id"`
	HomeAreaID      string `json:"home_area_id"`
	AddToInventory  bool   `json:"add_to_inventory"`
}

func (r *addItemRequest) normalize() {
	trim(&r.Name)
	trim(&r.InventoryItemID)
	trim(&r.HomeAreaID)
}

type checkedRequest struct {
	Checked *bool `json:"checked" validate:"required"`
}

func (h *ShoppingHandler) Active(w http.ResponseWriter, r *http.Request) {
	active, err := h.svc.ActiveList(r.Context())
	if err != nil {
		h.fail(w, err, "load shopping list", "shopping list")
		return
	}
	writeJSON(w, http.StatusOK, renderActiveList(active))
}

func (h *ShoppingHandler) History(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.History(r.Context())
	if err != nil {
		h.fail(w, err, "load shopping history", "shopping list")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ShoppingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.svc.AddItem(r.Context(), parseListRef(r.PathValue("list_id")), shopping.AddItemInput{
		Name:            req.Name,
		InventoryItemID: req.InventoryItemID,
		HomeAreaID:      req.HomeAreaID,
		AddToInventory:  req.AddToInventory,
	})
	if err != nil {
		h.fail(w, err, "add shopping item", "shopping list")
		return
	}
	h.broadcast(websocket.EntityShoppingItem, "created", item.ID, map[string]any{"list_id": item.ListID})
	if req.AddToInventory && req.InventoryItemID == "" && item.InventoryItem != nil {
		h.broadcast(websocket.EntityInventory, "created", item.InventoryItem.ID, nil)
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	active, err := h.svc.RemoveItem(r.Context(), parseListRef(r.PathValue("list_id")), parseItemRef(r.PathValue("item_id")))
	if err != nil {
		h.fail(w, err, "remove shopping item", "shopping list")
		return
	}
	resp := renderActiveList(active)
	h.broadcast(websocket.EntityShoppingItem, "deleted", r.PathValue("item_id"), map[string]any{"list_id": resp.ID})
	writeJSON(w, http.StatusOK, resp)
}

func (h *ShoppingHandler) SetChecked(w http.ResponseWriter, r *http.Request) {
	var req checkedRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.svc.SetItemChecked(r.Context(), r.PathValue("item_id"), *req.Checked)
	if err != nil {
		h.fail(w, err, "update shopping item", "shopping list item")
		return
	}
	h.broadcast(websocket.EntityShoppingItem, "updated", item.ID, map[string]any{"checked": item.Checked})
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Start(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.StartTrip(r.Context(), parseListRef(r.PathValue("list_id")))
	if err != nil {
		h.fail(w, err, "start shopping trip", "shopping list")
		return
	}
	h.broadcast(websocket.EntityShoppingList, "started", list.ID, nil)
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.CompleteTrip(r.Context(), r.PathValue("list_id"))
	if err != nil {
		h.fail(w, err, "complete shopping trip", "shopping list")
		return
	}
	h.broadcast(websocket.EntityShoppingList, "completed", list.ID, nil)
	h.broadcast(websocket.EntityInventory, "restocked", "", nil)
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.CancelTrip(r.Context(), r.PathValue("list_id"))
	if err != nil {
		h.fail(w, err, "cancel shopping trip", "shopping list")
		return
	}
	h.broadcast(websocket.EntityShoppingList, "cancelled", list.ID, nil)
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("list_id")
	if err := h.svc.AbandonDraft(r.Context(), parseListRef(id)); err != nil {
		h.fail(w, err, "abandon shopping list", "shopping list")
		return
	}
	h.broadcast(websocket.EntityShoppingList, "abandoned", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
