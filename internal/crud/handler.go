package crud

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dispensaryhub/internal/api"
)

// Handler serves the standard five routes over a Repository. validate may be
// nil for resources with no required fields.
type Handler[T any] struct {
	repo     *Repository[T]
	validate func(*T) error
}

func NewHandler[T any](repo *Repository[T], validate func(*T) error) *Handler[T] {
	return &Handler[T]{repo: repo, validate: validate}
}

func (h *Handler[T]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	return r
}

func (h *Handler[T]) decode(w http.ResponseWriter, r *http.Request) (*T, bool) {
	var record T
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return nil, false
	}
	if h.validate != nil {
		if err := h.validate(&record); err != nil {
			api.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
			return nil, false
		}
	}
	return &record, true
}

func (h *Handler[T]) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.List(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list")
		return
	}
	api.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	record, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.repo.Create(r.Context(), record)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to create")
		return
	}
	api.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to get")
		return
	}
	api.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	record, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), record)
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to update")
		return
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to delete")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
