package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eczanem/pharmatrack-backend/internal/sales/service"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/httputil"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// SaleHandler handles sale endpoints
type SaleHandler struct {
	sales     *service.Service
	analytics *service.Analytics
	logger    *logger.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(sales *service.Service, analytics *service.Analytics, log *logger.Logger) *SaleHandler {
	return &SaleHandler{
		sales:     sales,
		analytics: analytics,
		logger:    log,
	}
}

// RecordSaleRequest is the payload for recording a sale. Identifier accepts a
// medicine id, a barcode or an exact medicine name.
type RecordSaleRequest struct {
	OwnerID      string  `json:"owner_id" validate:"required"`
	Identifier   string  `json:"identifier" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	CustomerName *string `json:"customer_name,omitempty"`
	SaleDate     string  `json:"sale_date,omitempty"`
}

// Record records a sale, depleting stock in expiry order
func (h *SaleHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	var saleDate time.Time
	if req.SaleDate != "" {
		parsed, err := time.Parse("2006-01-02", req.SaleDate)
		if err != nil {
			httputil.Error(w, errors.BadRequest("sale_date must be formatted YYYY-MM-DD"))
			return
		}
		saleDate = parsed
	}

	result, err := h.sales.RecordSale(r.Context(), service.RecordSaleInput{
		OwnerID:      req.OwnerID,
		Identifier:   req.Identifier,
		Quantity:     req.Quantity,
		CustomerName: req.CustomerName,
		SaleDate:     saleDate,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// Get gets one sale by id
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	sale, err := h.sales.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sale)
}

// List lists an owner's sales, newest first
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.Error(w, errors.BadRequest("owner_id query parameter is required"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	sales, total, err := h.sales.ListSales(r.Context(), ownerID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, sales, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	})
}

// Summary returns the owner's rolling sales totals and top medicines
func (h *SaleHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.Error(w, errors.BadRequest("owner_id query parameter is required"))
		return
	}

	summary, err := h.analytics.Summary(r.Context(), ownerID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// Trend returns per-month sale totals over ?months (default 12)
func (h *SaleHandler) Trend(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.Error(w, errors.BadRequest("owner_id query parameter is required"))
		return
	}

	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	if months < 1 || months > 60 {
		months = 12
	}

	trend, err := h.analytics.Trend(r.Context(), ownerID, months)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, trend)
}

// MedicineTotal sums one medicine's sales over ?since / ?until (YYYY-MM-DD)
func (h *SaleHandler) MedicineTotal(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.Error(w, errors.BadRequest("owner_id query parameter is required"))
		return
	}
	medicineID := chi.URLParam(r, "medicineID")

	since, err := parseDateParam(r, "since")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	until, err := parseDateParam(r, "until")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if since.IsZero() {
		since = time.Now().UTC().AddDate(-1, 0, 0)
	}

	total, err := h.analytics.MedicineTotal(r.Context(), ownerID, medicineID, since, until)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"medicine_id": medicineID,
		"total":       total,
	})
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.BadRequest(name + " must be formatted YYYY-MM-DD")
	}
	return t, nil
}
