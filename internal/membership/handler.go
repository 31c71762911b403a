package membership

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

// Routes mounts the member endpoints: CRUD plus the verification gate.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Post("/", h.handleRegister)
	r.Get("/{memberID}", h.handleGet)
	r.Put("/{memberID}", h.handleUpdate)
	r.Delete("/{memberID}", h.handleDelete)
	r.Post("/{memberID}/verify", h.handleVerify)
	r.Get("/{memberID}/verifications", h.handleListVerifications)
	return r
}

func validProfile(p Profile) bool {
	return p.MemberNumber != "" && p.FirstName != "" && p.LastName != ""
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var profile Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if !validProfile(profile) {
		api.WriteError(w, http.StatusBadRequest, "validation_error", "member_number, first_name, and last_name are required")
		return
	}

	member, err := h.service.Register(r.Context(), profile)
	if errors.Is(err, ErrRateLimited) {
		api.WriteError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to register member")
		return
	}

	api.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list members")
		return
	}
	api.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.GetMember(r.Context(), chi.URLParam(r, "memberID"))
	if errors.Is(err, ErrMemberNotFound) {
		api.WriteError(w, http.StatusNotFound, "member_not_found", err.Error())
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to get member")
		return
	}
	api.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var profile Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if !validProfile(profile) {
		api.WriteError(w, http.StatusBadRequest, "validation_error", "member_number, first_name, and last_name are required")
		return
	}

	member, err := h.service.UpdateProfile(r.Context(), chi.URLParam(r, "memberID"), profile)
	if errors.Is(err, ErrMemberNotFound) {
		api.WriteError(w, http.StatusNotFound, "member_not_found", err.Error())
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to update member")
		return
	}
	api.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteMember(r.Context(), chi.URLParam(r, "memberID"))
	if errors.Is(err, ErrMemberNotFound) {
		api.WriteError(w, http.StatusNotFound, "member_not_found", err.Error())
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to delete member")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Outcome     string `json:"outcome"`
		Notes       string `json:"notes"`
		DocumentRef string `json:"document_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	member, err := h.service.RecordDecision(r.Context(), chi.URLParam(r, "memberID"), Decision{
		Outcome:     req.Outcome,
		ActorID:     identity.ActorFromContext(r.Context()),
		Notes:       req.Notes,
		DocumentRef: req.DocumentRef,
	})
	switch {
	case errors.Is(err, ErrMemberNotFound):
		api.WriteError(w, http.StatusNotFound, "member_not_found", err.Error())
	case errors.Is(err, ErrInvalidOutcome):
		api.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
	case err != nil:
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to record decision")
	default:
		api.WriteJSON(w, http.StatusOK, member)
	}
}

func (h *Handler) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	verifications, err := h.service.ListVerifications(r.Context(), chi.URLParam(r, "memberID"))
	if errors.Is(err, ErrMemberNotFound) {
		api.WriteError(w, http.StatusNotFound, "member_not_found", err.Error())
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list verifications")
		return
	}
	api.WriteJSON(w, http.StatusOK, verifications)
}
