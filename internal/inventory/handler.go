package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dispensaryhub/internal/api"
	"dispensaryhub/internal/identity"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts one POST per public movement kind plus the movement listing.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/receive", h.record(KindReceive))
	r.Post("/adjust", h.record(KindAdjust))
	r.Post("/waste", h.record(KindWaste))
	r.Get("/movements", h.handleListMovements)
	return r
}

func (h *Handler) record(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductID string  `json:"product_id"`
			Quantity  float64 `json:"quantity"`
			Reason    string  `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if req.ProductID == "" {
			api.WriteError(w, http.StatusBadRequest, "validation_error", "product_id is required")
			return
		}

		movement, err := h.service.RecordMovement(r.Context(), req.ProductID, kind, req.Quantity,
			req.Reason, identity.ActorFromContext(r.Context()))
		switch {
		case errors.Is(err, ErrProductNotFound):
			api.WriteError(w, http.StatusNotFound, "product_not_found", err.Error())
		case errors.Is(err, ErrInvalidQuantity):
			api.WriteError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		case err != nil:
			api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to record movement")
		default:
			api.WriteJSON(w, http.StatusCreated, movement)
		}
	}
}

func (h *Handler) handleListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.ListMovements(r.Context(), r.URL.Query().Get("product_id"))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list movements")
		return
	}
	api.WriteJSON(w, http.StatusOK, movements)
}

// HandleStock serves the derived stock level; mounted as /products/{id}/stock.
func (h *Handler) HandleStock(w http.ResponseWriter, r *http.Request) {
	level, err := h.service.Stock(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrProductNotFound) {
		api.WriteError(w, http.StatusNotFound, "product_not_found", err.Error())
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to derive stock")
		return
	}
	api.WriteJSON(w, http.StatusOK, level)
}
