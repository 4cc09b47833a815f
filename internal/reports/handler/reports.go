package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/eczanem/pharmatrack-backend/internal/reports/service"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/httputil"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// maxImageSize caps uploaded report images at 10 MiB
const maxImageSize = 10 << 20

// ReportHandler handles report processing endpoints
type ReportHandler struct {
	reports *service.Service
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.Service, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  log,
	}
}

// Extract runs OCR on an uploaded report image
func (h *ReportHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		httputil.Error(w, errors.BadRequest("invalid multipart upload"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("file field is required"))
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		httputil.Error(w, errors.BadRequest("failed to read uploaded file"))
		return
	}

	text, err := h.reports.ExtractText(r.Context(), imageData)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"extracted_text": text})
}

// TextRequest carries report text through the pipeline endpoints
type TextRequest struct {
	Text string `json:"text" validate:"required"`
}

// Entities extracts clinical entities from report text
func (h *ReportHandler) Entities(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	entities := h.reports.ExtractEntities(req.Text)

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"text":     req.Text,
	})
}

// EligibilityRequest carries the report text plus the context fields the
// report itself cannot answer
type EligibilityRequest struct {
	Text          string `json:"text" validate:"required"`
	ALTIncreased  bool   `json:"alt_increased"`
	PatientType   string `json:"patient_type,omitempty" validate:"omitempty,oneof=hemodialysis peritoneal_dialysis"`
	TreatmentForm string `json:"treatment_form,omitempty" validate:"omitempty,oneof=parenteral oral"`
	Specialty     string `json:"specialty,omitempty"`
	FirstReport   bool   `json:"first_report"`
	LabResultDate string `json:"lab_result_date,omitempty"`
}

// Eligibility evaluates the paricalcitol rules against report text
func (h *ReportHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	var req EligibilityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	var labDate time.Time
	if req.LabResultDate != "" {
		parsed, err := time.Parse("2006-01-02", req.LabResultDate)
		if err != nil {
			httputil.Error(w, errors.BadRequest("lab_result_date must be formatted YYYY-MM-DD"))
			return
		}
		labDate = parsed
	}

	result := h.reports.Eligibility(service.EligibilityRequest{
		Text:          req.Text,
		ALTIncreased:  req.ALTIncreased,
		PatientType:   req.PatientType,
		TreatmentForm: req.TreatmentForm,
		Specialty:     req.Specialty,
		FirstReport:   req.FirstReport,
		LabResultDate: labDate,
	})

	httputil.JSON(w, http.StatusOK, result)
}

// Validate checks report text against the hepatitis treatment guidelines
func (h *ReportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.reports.Validate(r.Context(), req.Text)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
