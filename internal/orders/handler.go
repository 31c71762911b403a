package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dispensaryhub/internal/api"
	"dispensaryhub/internal/identity"
	"dispensaryhub/internal/membership"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{orderID}", h.handleGet)
	r.Post("/{orderID}/finalize", h.handleFinalize)
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string      `json:"member_id"`
		Notes    string      `json:"notes"`
		Items    []ItemInput `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.MemberID == "" {
		api.WriteError(w, http.StatusBadRequest, "validation_error", "member_id is required")
		return
	}

	result, err := h.service.CreateOrder(r.Context(), req.MemberID, req.Items,
		identity.ActorFromContext(r.Context()), req.Notes)
	switch {
	case errors.Is(err, ErrEmptyOrder):
		api.WriteError(w, http.StatusBadRequest, "empty_order", err.Error())
	case errors.Is(err, ErrInvalidItem):
		api.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, membership.ErrMemberNotFound):
		api.WriteError(w, http.StatusNotFound, "member_not_found", err.Error())
	case errors.Is(err, membership.ErrIneligibleMember):
		api.WriteError(w, http.StatusBadRequest, "ineligible_member", err.Error())
	case err != nil:
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to create order")
	default:
		api.WriteJSON(w, http.StatusCreated, result)
	}
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.FinalizeOrder(r.Context(), chi.URLParam(r, "orderID"),
		identity.ActorFromContext(r.Context()))
	switch {
	case errors.Is(err, ErrOrderNotFound):
		api.WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, ErrAlreadyFinalized):
		api.WriteError(w, http.StatusConflict, "already_finalized", err.Error())
	case errors.Is(err, ErrEmptyOrder):
		api.WriteError(w, http.StatusBadRequest, "empty_order", err.Error())
	case errors.Is(err, membership.ErrMemberNotFound):
		api.WriteError(w, http.StatusNotFound, "member_not_found", err.Error())
	case errors.Is(err, membership.ErrIneligibleMember):
		api.WriteError(w, http.StatusBadRequest, "ineligible_member", err.Error())
	case err != nil:
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to finalize order")
	default:
		api.WriteJSON(w, http.StatusOK, order)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if errors.Is(err, ErrOrderNotFound) {
		api.WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to get order")
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListOrders(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}
	api.WriteJSON(w, http.StatusOK, list)
}
