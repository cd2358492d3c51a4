package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/homekeep/internal/dashboard"
	"github.com/dukerupert/homekeep/internal/inventory"
	"github.com/dukerupert/homekeep/internal/memstore"
	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/note"
	"github.com/dukerupert/homekeep/internal/repository"
	"github.com/dukerupert/homekeep/internal/shopping"
	"github.com/dukerupert/homekeep/internal/task"
	"github.com/dukerupert/homekeep/internal/websocket"
)

type recordingHub struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (h *recordingHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, m := range h.messages {
		out = append(out, m.Type)
	}
	return out
}

type fixture struct {
	repos repository.Repositories
	hub   *recordingHub
	mux   *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := memstore.New().Repositories()
	hub := &recordingHub{}

	shop := shopping.NewService(repos.ShoppingLists, repos.Inventory, nil, logger)
	inv := inventory.NewService(repos.Inventory, shop, nil, logger)

	areas := NewHomeAreaHandler(repos.HomeAreas, hub, logger)
	items := NewInventoryHandler(inv, hub, logger)
	tasks := NewTaskHandler(task.NewService(repos.Tasks), hub, logger)
	notes := NewNoteHandler(note.NewService(repos.Notes), hub, logger)
	shopH := NewShoppingHandler(shop, hub, logger)
	dash := NewDashboardHandler(dashboard.NewService(repos), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/home-areas", areas.List)
	mux.HandleFunc("POST /api/home-areas", areas.Create)
	mux.HandleFunc("GET /api/home-areas/stats", areas.Stats)
	mux.HandleFunc("PUT /api/home-areas/{id}", areas.Update)
	mux.HandleFunc("DELETE /api/home-areas/{id}", areas.Delete)
	mux.HandleFunc("GET /api/inventory", items.List)
	mux.HandleFunc("POST /api/inventory", items.Create)
	mux.HandleFunc("PATCH /api/inventory/{id}", items.Update)
	mux.HandleFunc("DELETE /api/inventory/{id}", items.Delete)
	mux.HandleFunc("POST /api/inventory/{id}/toggle", items.Toggle)
	mux.HandleFunc("POST /api/inventory/{id}/not-needed", items.MarkNotNeeded)
	mux.HandleFunc("GET /api/tasks", tasks.List)
	mux.HandleFunc("POST /api/tasks", tasks.Create)
	mux.HandleFunc("PATCH /api/tasks/{id}", tasks.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", tasks.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", tasks.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/pending", tasks.Pending)
	mux.HandleFunc("GET /api/notes", notes.List)
	mux.HandleFunc("POST /api/notes", notes.Create)
	mux.HandleFunc("GET /api/notes/count", notes.Count)
	mux.HandleFunc("GET /api/notes/{id}", notes.Get)
	mux.HandleFunc("GET /api/notes/{id}/markdown", notes.Markdown)
	mux.HandleFunc("PATCH /api/notes/{id}", notes.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", notes.Delete)
	mux.HandleFunc("GET /api/shopping/active", shopH.Active)
	mux.HandleFunc("GET /api/shopping/history", shopH.History)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/items", shopH.AddItem)
	mux.HandleFunc("DELETE /api/shopping/lists/{list_id}/items/{item_id}", shopH.RemoveItem)
	mux.HandleFunc("POST /api/shopping/items/{item_id}/checked", shopH.SetChecked)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/start", shopH.Start)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/complete", shopH.Complete)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/cancel", shopH.Cancel)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/abandon", shopH.Abandon)
	mux.HandleFunc("GET /api/dashboard", dash.Stats)

	return &fixture{repos: repos, hub: hub, mux: mux}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rec)["error"].(string)
}

func (f *fixture) inventory(t *testing.T, name string, status model.InventoryStatus) *model.InventoryItem {
	t.Helper()
	item, err := f.repos.Inventory.Create(context.Background(), model.NewInventoryItem{Name: name, Status: status})
	require.NoError(t, err)
	return item
}

type activeList struct {
	model.ShoppingList
	Virtual bool `json:"virtual"`
}

func TestHomeAreaCRUD(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/home-areas", map[string]string{"name": "  Kitchen  "})
	require.Equal(t, http.StatusCreated, rec.Code)
	area := decodeBody[model.HomeArea](t, rec)
	assert.Equal(t, "Kitchen", area.Name)

	rec = f.do(t, http.MethodPut, "/api/home-areas/"+area.ID, map[string]string{"name": "Pantry"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pantry", decodeBody[model.HomeArea](t, rec).Name)

	rec = f.do(t, http.MethodGet, "/api/home-areas/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[model.HomeAreaStats](t, rec).Total)

	rec = f.do(t, http.MethodDelete, "/api/home-areas/"+area.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/home-areas", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	assert.Equal(t, []string{"home_area_created", "home_area_updated", "home_area_deleted"}, f.hub.types())
}

func TestValidationErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/home-areas", map[string]string{"name": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[validationResponse](t, rec)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, "is required", resp.Fields["name"])

	rec = f.do(t, http.MethodPost, "/api/inventory", map[string]string{"name": "Milk", "status": "LOW"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[validationResponse](t, rec).Fields, "status")

	rec = f.do(t, http.MethodPost, "/api/tasks", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON", errorOf(t, rec))

	rec = f.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "x", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	assert.Empty(t, f.hub.types())
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/home-areas/missing", map[string]string{"name": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "home area not found", errorOf(t, rec))

	rec = f.do(t, http.MethodPost, "/api/inventory", map[string]string{"name": "Milk", "home_area_id": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "home area not found", errorOf(t, rec))

	rec = f.do(t, http.MethodPost, "/api/tasks/missing/complete", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task not found", errorOf(t, rec))

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/missing/complete", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, shopping.ErrListNotFound.Error(), errorOf(t, rec))

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/virtual-draft/items", map[string]string{"name": "Eggs", "inventory_item_id": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "inventory item not found", errorOf(t, rec))
}

func TestInventoryToggleAndArchive(t *testing.T) {
	f := newFixture(t)
	soap := f.inventory(t, "Soap", model.InventoryInStock)

	rec := f.do(t, http.MethodPost, "/api/inventory/"+soap.ID+"/toggle", map[string]string{"current_status": "IN_STOCK"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.InventoryOutOfStock, decodeBody[model.InventoryItem](t, rec).Status)

	// without a body the stored status is used
	rec = f.do(t, http.MethodPost, "/api/inventory/"+soap.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.InventoryInStock, decodeBody[model.InventoryItem](t, rec).Status)

	for range 2 {
		rec = f.do(t, http.MethodPost, "/api/inventory/"+soap.ID+"/not-needed", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, model.InventoryNotNeeded, decodeBody[model.InventoryItem](t, rec).Status)
	}

	rec = f.do(t, http.MethodPost, "/api/inventory/"+soap.ID+"/toggle", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, inventory.ErrNotNeeded.Error(), errorOf(t, rec))

	rec = f.do(t, http.MethodGet, "/api/inventory", nil)
	assert.Empty(t, decodeBody[[]model.InventoryItem](t, rec))
	rec = f.do(t, http.MethodGet, "/api/inventory?include_archived=true", nil)
	assert.Len(t, decodeBody[[]model.InventoryItem](t, rec), 1)

	rec = f.do(t, http.MethodPatch, "/api/inventory/"+soap.ID, map[string]string{"status": "IN_STOCK"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.InventoryInStock, decodeBody[model.InventoryItem](t, rec).Status)
}

func TestInventoryPatchRejectsBlankName(t *testing.T) {
	f := newFixture(t)
	milk := f.inventory(t, "Milk", model.InventoryInStock)

	rec := f.do(t, http.MethodPatch, "/api/inventory/"+milk.ID, map[string]string{"name": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[validationResponse](t, rec).Fields, "name")
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "Clean gutters"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tk := decodeBody[model.Task](t, rec)
	assert.False(t, tk.Completed)

	rec = f.do(t, http.MethodPost, "/api/tasks/"+tk.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[model.Task](t, rec)
	assert.True(t, done.Completed)
	assert.NotNil(t, done.CompletedAt)

	rec = f.do(t, http.MethodPatch, "/api/tasks/"+tk.ID, map[string]bool{"completed": false})
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[model.Task](t, rec)
	assert.False(t, pending.Completed)
	assert.Nil(t, pending.CompletedAt)

	rec = f.do(t, http.MethodDelete, "/api/tasks/"+tk.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestNoteMarkdownAndCount(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/notes", map[string]string{"title": "Boiler", "content": "<p>Reset with the <strong>red</strong> button</p>"})
	require.Equal(t, http.StatusCreated, rec.Code)
	n := decodeBody[model.Note](t, rec)

	rec = f.do(t, http.MethodGet, "/api/notes/"+n.ID+"/markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# Boiler\n\nReset with the **red** button\n", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/notes/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[map[string]int](t, rec)["count"])

	rec = f.do(t, http.MethodPatch, "/api/notes/"+n.ID, map[string]string{"title": "Boiler room"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Boiler room", decodeBody[model.Note](t, rec).Title)
}

func TestShoppingVirtualDraft(t *testing.T) {
	f := newFixture(t)
	milk := f.inventory(t, "Milk", model.InventoryOutOfStock)
	f.inventory(t, "Soap", model.InventoryInStock)

	rec := f.do(t, http.MethodGet, "/api/shopping/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decodeBody[activeList](t, rec)
	assert.True(t, active.Virtual)
	assert.Equal(t, VirtualDraftID, active.ID)
	assert.Equal(t, model.ShoppingDraft, active.Status)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "virtual-"+milk.ID, active.Items[0].ID)
	assert.Equal(t, "Milk", active.Items[0].Name)

	rec = f.do(t, http.MethodDelete, "/api/shopping/lists/virtual-draft/items/virtual-"+milk.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active = decodeBody[activeList](t, rec)
	assert.True(t, active.Virtual)
	assert.Empty(t, active.Items)

	_, err := f.repos.ShoppingLists.FindOpen(context.Background())
	assert.ErrorIs(t, err, repository.ErrNotFound, "nothing was persisted")
}

func TestShoppingTrip(t *testing.T) {
	f := newFixture(t)
	milk := f.inventory(t, "Milk", model.InventoryOutOfStock)
	eggs := f.inventory(t, "Eggs", model.InventoryOutOfStock)

	rec := f.do(t, http.MethodPost, "/api/shopping/lists/virtual-draft/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[model.ShoppingList](t, rec)
	assert.Equal(t, model.ShoppingActive, list.Status)
	assert.NotNil(t, list.StartedAt)
	require.Len(t, list.Items, 2)

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/"+list.ID+"/start", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "can only start a shopping trip from a draft list", errorOf(t, rec))

	milkLine := list.ItemForInventory(milk.ID)
	require.NotNil(t, milkLine)
	rec = f.do(t, http.MethodPost, "/api/shopping/items/"+milkLine.ID+"/checked", map[string]bool{"checked": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[model.ShoppingListItem](t, rec).Checked)

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/"+list.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ShoppingCompleted, decodeBody[model.ShoppingList](t, rec).Status)

	ctx := context.Background()
	got, err := f.repos.Inventory.Get(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InventoryInStock, got.Status)
	got, err = f.repos.Inventory.Get(ctx, eggs.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InventoryOutOfStock, got.Status)

	rec = f.do(t, http.MethodGet, "/api/shopping/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.ShoppingList](t, rec), 1)

	assert.Contains(t, f.hub.types(), "shopping_list_started")
	assert.Contains(t, f.hub.types(), "shopping_list_completed")
}

func TestShoppingStartEmptyVirtualDraft(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/shopping/lists/virtual-draft/start", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, shopping.ErrEmptyList.Error(), errorOf(t, rec))
}

func TestShoppingAddCancelAbandon(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/shopping/lists/virtual-draft/items", map[string]any{"name": "Batteries", "add_to_inventory": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decodeBody[model.ShoppingListItem](t, rec)
	require.NotNil(t, item.InventoryItem)
	assert.Contains(t, f.hub.types(), "inventory_item_created")

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/"+item.ListID+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/"+item.ListID+"/abandon", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/"+item.ListID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ShoppingDraft, decodeBody[model.ShoppingList](t, rec).Status)

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/"+item.ListID+"/abandon", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/shopping/lists/virtual-draft/abandon", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestShoppingCheckedRequiresValue(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/shopping/items/anything/checked", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "is required", decodeBody[validationResponse](t, rec).Fields["checked"])

	rec = f.do(t, http.MethodPost, "/api/shopping/items/missing/checked", map[string]bool{"checked": false})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.inventory(t, "Milk", model.InventoryOutOfStock)
	f.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "Mow"})

	rec := f.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[model.DashboardStats](t, rec)
	assert.Equal(t, 1, stats.OutOfStockItems)
	assert.Equal(t, 1, stats.PendingTasks)
	assert.Equal(t, 1, stats.ItemsInShoppingList)
}

func TestParseRefs(t *testing.T) {
	assert.True(t, parseListRef("virtual-draft").IsVirtual())
	assert.Equal(t, "abc", parseListRef("abc").ID())

	ref := parseItemRef("virtual-123")
	assert.True(t, ref.IsVirtual())
	assert.Equal(t, "123", ref.InventoryID())

	ref = parseItemRef("0b6c")
	assert.False(t, ref.IsVirtual())
	assert.Equal(t, "0b6c", ref.ID())
}
