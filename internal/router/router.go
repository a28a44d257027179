package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/karahi-ops/api/internal/config"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/enum"
	"github.com/karahi-ops/api/internal/handler"
	mw "github.com/karahi-ops/api/internal/middleware"
	"github.com/karahi-ops/api/internal/service"
	"github.com/karahi-ops/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, branch scoping, and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/branches/{bid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	orderHandler := handler.NewOrderHandler(orderService, queries, hub)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Admin-only master data
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			r.Route("/admin", func(r chi.Router) {
				branchHandler := handler.NewBranchHandler(queries)
				r.Route("/branches", branchHandler.RegisterRoutes)

				sectionHandler := handler.NewSectionHandler(queries)
				r.Route("/sections", sectionHandler.RegisterRoutes)

				itemHandler := handler.NewItemHandler(queries)
				r.Route("/items", itemHandler.RegisterRoutes)

				categoryHandler := handler.NewCategoryHandler(queries)
				categoryHandler.RegisterRoutes(r)

				userHandler := handler.NewUserHandler(queries)
				r.Route("/users", userHandler.RegisterRoutes)

				pickListHandler := handler.NewPickListHandler(queries)
				pickListHandler.RegisterAdminRoutes(r)
			})
		})

		// Kitchen queue and aggregation (KITCHEN or ADMIN)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleKitchen, enum.UserRoleAdmin))

			r.Route("/kitchen", func(r chi.Router) {
				r.Route("/orders", orderHandler.RegisterKitchenRoutes)

				pickListHandler := handler.NewPickListHandler(queries)
				pickListHandler.RegisterRoutes(r)
			})
		})

		// Branch-scoped routes
		r.Route("/branches/{bid}", func(r chi.Router) {
			r.Use(mw.RequireBranch)

			r.Route("/orders", orderHandler.RegisterRoutes)

			itemHandler := handler.NewItemHandler(queries)
			r.Route("/catalog/items", itemHandler.RegisterCatalogRoutes)

			wastageHandler := handler.NewWastageHandler(queries, cfg.UploadDir)
			r.Route("/wastage", wastageHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
