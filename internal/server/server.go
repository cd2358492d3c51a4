package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/homekeep/internal/app"
	"github.com/dukerupert/homekeep/internal/handler"
	"github.com/dukerupert/homekeep/internal/middleware"
	ws "github.com/dukerupert/homekeep/internal/websocket"
)

type Server struct {
	app         *app.App
	homeAreaH   *handler.HomeAreaHandler
	inventoryH  *handler.InventoryHandler
	taskH       *handler.TaskHandler
	noteH       *handler.NoteHandler
	shoppingH   *handler.ShoppingHandler
	dashboardH  *handler.DashboardHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(a *app.App) *Server {
	logger := a.Logger
	return &Server{
		app:         a,
		homeAreaH:   handler.NewHomeAreaHandler(a.Repos.HomeAreas, a.Hub, logger.With("component", "home_area")),
		inventoryH:  handler.NewInventoryHandler(a.Inventory, a.Hub, logger.With("component", "inventory")),
		taskH:       handler.NewTaskHandler(a.Tasks, a.Hub, logger.With("component", "task")),
		noteH:       handler.NewNoteHandler(a.Notes, a.Hub, logger.With("component", "note")),
		shoppingH:   handler.NewShoppingHandler(a.Shopping, a.Hub, logger.With("component", "shopping")),
		dashboardH:  handler.NewDashboardHandler(a.Dashboard, logger.With("component", "dashboard")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.app.Hub, s.logger.With("component", "websocket")))
	if s.app.Metrics != nil {
		outerMux.Handle("GET /metrics", s.app.Metrics.Handler())
	}

	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)
	outerMux.Handle("/api/", s.rateLimited(apiMux))

	var h http.Handler = outerMux
	if s.app.Metrics != nil {
		h = middleware.Metrics(s.app.Metrics)(h)
	}
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if db := s.app.DB; db != nil {
		if err := db.PingContext(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status, "backend": s.app.Config.Database.Backend})
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	cfg := s.app.Config.HTTP
	if cfg.RateLimitRequests <= 0 {
		return next
	}
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, cfg.RateLimitRequests, cfg.RateLimitWindow)(next)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Home areas
	mux.HandleFunc("GET /api/home-areas", s.homeAreaH.List)
	mux.HandleFunc("POST /api/home-areas", s.homeAreaH.Create)
	mux.HandleFunc("GET /api/home-areas/stats", s.homeAreaH.Stats)
	mux.HandleFunc("PUT /api/home-areas/{id}", s.homeAreaH.Update)
	mux.HandleFunc("DELETE /api/home-areas/{id}", s.homeAreaH.Delete)

	// Inventory
	mux.HandleFunc("GET /api/inventory", s.inventoryH.List)
	mux.HandleFunc("POST /api/inventory", s.inventoryH.Create)
	mux.HandleFunc("PATCH /api/inventory/{id}", s.inventoryH.Update)
	mux.HandleFunc("DELETE /api/inventory/{id}", s.inventoryH.Delete)
	mux.HandleFunc("POST /api/inventory/{id}/toggle", s.inventoryH.Toggle)
	mux.HandleFunc("POST /api/inventory/{id}/not-needed", s.inventoryH.MarkNotNeeded)

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/pending", s.taskH.Pending)

	// Notes
	mux.HandleFunc("GET /api/notes", s.noteH.List)
	mux.HandleFunc("POST /api/notes", s.noteH.Create)
	mux.HandleFunc("GET /api/notes/count", s.noteH.Count)
	mux.HandleFunc("GET /api/notes/{id}", s.noteH.Get)
	mux.HandleFunc("GET /api/notes/{id}/markdown", s.noteH.Markdown)
	mux.HandleFunc("PATCH /api/notes/{id}", s.noteH.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", s.noteH.Delete)

	// Shopping
	mux.HandleFunc("GET /api/shopping/active", s.shoppingH.Active)
	mux.HandleFunc("GET /api/shopping/history", s.shoppingH.History)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/items", s.shoppingH.AddItem)
	mux.HandleFunc("DELETE /api/shopping/lists/{list_id}/items/{item_id}", s.shoppingH.RemoveItem)
	mux.HandleFunc("POST /api/shopping/items/{item_id}/checked", s.shoppingH.SetChecked)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/start", s.shoppingH.Start)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/complete", s.shoppingH.Complete)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/cancel", s.shoppingH.Cancel)
	mux.HandleFunc("POST /api/shopping/lists/{list_id}/abandon", s.shoppingH.Abandon)

	mux.HandleFunc("GET /api/dashboard", s.dashboardH.Stats)
}
