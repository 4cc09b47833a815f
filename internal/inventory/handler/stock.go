package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eczanem/pharmatrack-backend/internal/inventory/events"
	"github.com/eczanem/pharmatrack-backend/internal/inventory/importer"
	"github.com/eczanem/pharmatrack-backend/internal/inventory/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/httputil"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// maxImportSize caps uploaded spreadsheets at 10 MiB
const maxImportSize = 10 << 20

// StockHandler handles stock lot endpoints
type StockHandler struct {
	repo      *repository.LotRepository
	importer  *importer.ExcelImporter
	publisher *events.StockEventPublisher
	logger    *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(repo *repository.LotRepository, imp *importer.ExcelImporter, pub *events.StockEventPublisher, log *logger.Logger) *StockHandler {
	return &StockHandler{
		repo:      repo,
		importer:  imp,
		publisher: pub,
		logger:    log,
	}
}

// AddStockRequest is the payload for recording a supplier delivery
type AddStockRequest struct {
	OwnerID           string  `json:"owner_id" validate:"required"`
	MedicineID        string  `json:"medicine_id" validate:"required"`
	SupplierID        string  `json:"supplier_id" validate:"required"`
	ExpiryDate        string  `json:"expiry_date" validate:"required"`
	Quantity          int     `json:"quantity" validate:"required,gt=0"`
	StorageConditions *string `json:"storage_conditions,omitempty"`
}

// Add records a supplier delivery
func (h *StockHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("expiry_date must be formatted YYYY-MM-DD"))
		return
	}

	lot := &repository.StockLot{
		OwnerID:           req.OwnerID,
		MedicineID:        req.MedicineID,
		SupplierID:        req.SupplierID,
		ExpiryDate:        expiry,
		Quantity:          req.Quantity,
		StorageConditions: req.StorageConditions,
	}

	if err := h.repo.Create(r.Context(), lot); err != nil {
		httputil.Error(w, err)
		return
	}

	h.publisher.PublishStockReceived(r.Context(), lot)

	httputil.Created(w, lot)
}

// ListByMedicine lists an owner's lots for a medicine
func (h *StockHandler) ListByMedicine(w http.ResponseWriter, r *http.Request) {
	medicineID := chi.URLParam(r, "medicineID")
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.Error(w, errors.BadRequest("owner_id query parameter is required"))
		return
	}

	lots, err := h.repo.ListByMedicine(r.Context(), ownerID, medicineID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

// UpdateStockRequest is the payload for an administrative lot correction
type UpdateStockRequest struct {
	Quantity          int     `json:"quantity" validate:"min=0"`
	ExpiryDate        string  `json:"expiry_date" validate:"required"`
	StorageConditions *string `json:"storage_conditions,omitempty"`
}

// Update applies an administrative correction to a lot
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("expiry_date must be formatted YYYY-MM-DD"))
		return
	}

	lot, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lot.Quantity = req.Quantity
	lot.ExpiryDate = expiry
	lot.StorageConditions = req.StorageConditions

	if err := h.repo.Update(r.Context(), lot); err != nil {
		httputil.Error(w, err)
		return
	}

	h.publisher.PublishStockAdjusted(r.Context(), lot)

	httputil.JSON(w, http.StatusOK, lot)
}

// Delete removes a lot
func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Expiring lists an owner's lots expiring within ?days (default 30)
func (h *StockHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.Error(w, errors.BadRequest("owner_id query parameter is required"))
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 {
		days = 30
	}

	lots, err := h.repo.GetExpiringLots(r.Context(), ownerID, days)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

// Import imports stock lots from an uploaded .xlsx file
func (h *StockHandler) Import(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.Error(w, errors.BadRequest("owner_id query parameter is required"))
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		httputil.Error(w, errors.BadRequest("invalid multipart upload"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("file field is required"))
		return
	}
	defer file.Close()

	result, err := h.importer.Import(r.Context(), ownerID, file)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
