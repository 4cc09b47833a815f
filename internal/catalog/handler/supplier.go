package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eczanem/pharmatrack-backend/internal/catalog/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/httputil"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// SupplierHandler handles supplier endpoints
type SupplierHandler struct {
	repo   *repository.SupplierRepository
	logger *logger.Logger
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(repo *repository.SupplierRepository, log *logger.Logger) *SupplierHandler {
	return &SupplierHandler{
		repo:   repo,
		logger: log,
	}
}

// SupplierRequest is the payload for creating or updating a supplier
type SupplierRequest struct {
	Name        string  `json:"name" validate:"required"`
	ContactInfo *string `json:"contact_info,omitempty"`
}

// Create creates a new supplier
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	s := &repository.Supplier{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
	}

	if err := h.repo.Create(r.Context(), s); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, s)
}

// Get gets a supplier by ID
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, s)
}

// List lists all suppliers
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.repo.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, suppliers)
}

// Update updates a supplier
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SupplierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	s := &repository.Supplier{
		ID:          id,
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
	}

	if err := h.repo.Update(r.Context(), s); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, s)
}

// Delete deletes a supplier
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
