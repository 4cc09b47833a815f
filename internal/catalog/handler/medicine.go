package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eczanem/pharmatrack-backend/internal/catalog/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/httputil"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// MedicineHandler handles medicine endpoints
type MedicineHandler struct {
	repo   *repository.MedicineRepository
	logger *logger.Logger
}

// NewMedicineHandler creates a new medicine handler
func NewMedicineHandler(repo *repository.MedicineRepository, log *logger.Logger) *MedicineHandler {
	return &MedicineHandler{
		repo:   repo,
		logger: log,
	}
}

// RegisterMedicineRequest is the payload for registering a medicine
type RegisterMedicineRequest struct {
	PublicNumber            string  `json:"public_number" validate:"required"`
	Name                    string  `json:"name" validate:"required"`
	Brand                   string  `json:"brand" validate:"required"`
	Form                    *string `json:"form,omitempty"`
	ReorderLevel            int     `json:"reorder_level" validate:"min=0"`
	Barcode                 string  `json:"barcode" validate:"required"`
	EquivalentMedicineGroup *string `json:"equivalent_medicine_group,omitempty"`
}

// Create registers a new medicine
func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RegisterMedicineRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	m := &repository.Medicine{
		PublicNumber:            req.PublicNumber,
		Name:                    req.Name,
		Brand:                   req.Brand,
		Form:                    req.Form,
		ReorderLevel:            req.ReorderLevel,
		Barcode:                 req.Barcode,
		EquivalentMedicineGroup: req.EquivalentMedicineGroup,
	}

	if err := h.repo.Create(r.Context(), m); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, m)
}

// Get gets a medicine by ID, including its active ingredients
func (h *MedicineHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	ingredients, err := h.repo.ListIngredients(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"medicine":           m,
		"active_ingredients": ingredients,
	})
}

// List lists medicines
func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	medicines, total, err := h.repo.List(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, medicines, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Update updates a medicine
func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RegisterMedicineRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	m := &repository.Medicine{
		ID:                      id,
		PublicNumber:            req.PublicNumber,
		Name:                    req.Name,
		Brand:                   req.Brand,
		Form:                    req.Form,
		ReorderLevel:            req.ReorderLevel,
		Barcode:                 req.Barcode,
		EquivalentMedicineGroup: req.EquivalentMedicineGroup,
	}

	if err := h.repo.Update(r.Context(), m); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, m)
}

// Delete deletes a medicine
func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// AddIngredientRequest is the payload for adding an active ingredient
type AddIngredientRequest struct {
	Name   string `json:"name" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

// AddIngredient adds an active ingredient to a medicine
func (h *MedicineHandler) AddIngredient(w http.ResponseWriter, r *http.Request) {
	medicineID := chi.URLParam(r, "id")

	var req AddIngredientRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	ing := &repository.ActiveIngredient{
		MedicineID: medicineID,
		Name:       req.Name,
		Amount:     req.Amount,
	}

	if err := h.repo.AddIngredient(r.Context(), ing); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, ing)
}
