// Package app assembles the services and the HTTP router. It exists apart
// from main so the end-to-end tests can run the whole surface against an
// in-memory store.
package app

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dispensaryhub/internal/api"
	"dispensaryhub/internal/audit"
	"dispensaryhub/internal/catalog"
	"dispensaryhub/internal/crud"
	"dispensaryhub/internal/identity"
	"dispensaryhub/internal/inventory"
	"dispensaryhub/internal/membership"
	"dispensaryhub/internal/observability"
	"dispensaryhub/internal/orders"
)

// Config tunes the assembled router.
type Config struct {
	// AuditPayloadLimit bounds the captured request body per audit event.
	// Zero means audit.DefaultPayloadLimit.
	AuditPayloadLimit int
}

// NewRouter wires every component onto one chi router. The audit middleware
// sits inside the identity middleware so events carry the resolved actor.
func NewRouter(db *sql.DB, cfg Config) http.Handler {
	memberSvc := membership.NewService(db)
	inventorySvc := inventory.NewService(db)
	orderSvc := orders.NewService(db)

	memberHandler := membership.NewHandler(memberSvc)
	inventoryHandler := inventory.NewHandler(inventorySvc)
	orderHandler := orders.NewHandler(orderSvc)

	productHandler := crud.NewHandler(crud.NewRepository(db, catalog.Products()), catalog.ValidateProduct)
	supplierHandler := crud.NewHandler(crud.NewRepository(db, catalog.Suppliers()), catalog.ValidateSupplier)

	recorder := audit.NewRecorder(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(identity.Middleware)
	r.Use(audit.Middleware(recorder, cfg.AuditPayloadLimit))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())

	// The upstream IdP issues the staff token; this endpoint just echoes
	// what the resolver would attribute the request to.
	r.Post("/staff/login", func(w http.ResponseWriter, req *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{
			"message":  "staff token expected in Authorization header for staff-attributed endpoints",
			"staff_id": identity.ActorFromContext(req.Context()),
		})
	})

	r.Mount("/members", memberHandler.Routes())
	r.Mount("/suppliers", supplierHandler.Routes())

	productRoutes := productHandler.Routes()
	productRoutes.Get("/{id}/stock", inventoryHandler.HandleStock)
	r.Mount("/products", productRoutes)

	r.Mount("/inventory", inventoryHandler.Routes())
	r.Mount("/orders", orderHandler.Routes())

	return r
}
