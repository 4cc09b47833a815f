package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eczanem/pharmatrack-backend/internal/reports/decision"
	"github.com/eczanem/pharmatrack-backend/internal/reports/matcher"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// TextExtractor turns a report image into text
type TextExtractor interface {
	ExtractText(ctx context.Context, imageData []byte) (string, error)
}

// Completer answers a chat-completions prompt
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service runs the report pipeline: OCR, entity extraction, eligibility
// evaluation and guideline compliance validation.
type Service struct {
	ocr     TextExtractor
	llm     Completer
	matcher *matcher.Matcher
	guide   *decision.Guide
	logger  *logger.Logger
	now     func() time.Time
}

// NewService creates a new reports service
func NewService(ocr TextExtractor, llm Completer, guide *decision.Guide, log *logger.Logger) *Service {
	return &Service{
		ocr:     ocr,
		llm:     llm,
		matcher: matcher.New(),
		guide:   guide,
		logger:  log.WithComponent("reports_service"),
		now:     time.Now,
	}
}

// ExtractText runs OCR on a report image
func (s *Service) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	if s.ocr == nil {
		return "", errors.Internal("ocr service is not configured")
	}

	text, err := s.ocr.ExtractText(ctx, imageData)
	if err != nil {
		s.logger.Error().Err(err).Msg("ocr extraction failed")
		return "", errors.Internal("text extraction failed")
	}

	return text, nil
}

// ExtractEntities finds the clinical entities in report text
func (s *Service) ExtractEntities(text string) map[string]matcher.Entity {
	return s.matcher.Match(text)
}

// EligibilityRequest carries report text plus the context the text itself
// cannot answer.
type EligibilityRequest struct {
	Text          string
	ALTIncreased  bool
	PatientType   string
	TreatmentForm string
	Specialty     string
	FirstReport   bool
	LabResultDate time.Time
}

// EligibilityResult pairs the decision with the entities it was based on
type EligibilityResult struct {
	Decision decision.Decision         `json:"decision"`
	Entities map[string]matcher.Entity `json:"entities"`
}

// Eligibility extracts lab values from the report text and evaluates the
// paricalcitol rules against them. Missing context fields fall back to the
// hemodialysis defaults.
func (s *Service) Eligibility(req EligibilityRequest) *EligibilityResult {
	entities := s.matcher.Match(req.Text)

	if req.PatientType == "" {
		req.PatientType = decision.PatientHemodialysis
	}
	if req.TreatmentForm == "" {
		req.TreatmentForm = decision.FormParenteral
	}
	if req.Specialty == "" {
		req.Specialty = "nephrology"
	}
	if req.LabResultDate.IsZero() {
		req.LabResultDate = s.now()
	}

	input := decision.EligibilityInput{
		PTH:           numericEntity(entities, matcher.LabelPTH),
		ALTIncreased:  req.ALTIncreased,
		Albumin:       numericEntity(entities, matcher.LabelAlbumin),
		Phosphorus:    numericEntity(entities, matcher.LabelPhosphorus),
		PatientType:   req.PatientType,
		TreatmentForm: req.TreatmentForm,
		Specialty:     req.Specialty,
		FirstReport:   req.FirstReport,
		LabResultDate: req.LabResultDate,
	}

	return &EligibilityResult{
		Decision: decision.EvaluateParicalcitol(input, s.now()),
		Entities: entities,
	}
}

// ValidationResult is the outcome of guideline compliance validation
type ValidationResult struct {
	IsValid          bool                       `json:"is_valid"`
	Message          string                     `json:"message"`
	Classification   decision.HepatitisType     `json:"classification"`
	RelevantSections map[string]json.RawMessage `json:"relevant_sections"`
}

const validationSystemPrompt = "You are an expert assistant helping to validate medical treatment reports."

// Validate classifies the report, selects the matching guideline sections and
// asks the chat-completions API whether the report complies with them.
func (s *Service) Validate(ctx context.Context, text string) (*ValidationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.BadRequest("report text is required")
	}
	if s.llm == nil {
		return nil, errors.Internal("compliance validation is not configured")
	}

	classification := decision.ClassifyHepatitis(text)
	sections := s.guide.RelevantSections(classification)

	prompt, err := buildValidationPrompt(text, sections)
	if err != nil {
		return nil, errors.Internal("failed to assemble validation prompt")
	}

	message, err := s.llm.Complete(ctx, validationSystemPrompt, prompt)
	if err != nil {
		s.logger.Error().Err(err).Msg("compliance validation failed")
		return nil, errors.Internal("compliance validation failed")
	}

	return &ValidationResult{
		IsValid:          strings.Contains(strings.ToLower(message), "compliant"),
		Message:          message,
		Classification:   classification,
		RelevantSections: sections,
	}, nil
}

// buildValidationPrompt quotes the report and the guideline sections into the
// analysis instructions. The model is told to respect the and/or relations
// between guideline criteria rather than evaluating them in isolation.
func buildValidationPrompt(text string, sections map[string]json.RawMessage) (string, error) {
	guideJSON, err := json.Marshal(sections)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Analyze whether the given medical report complies with the guidelines. Compare the diagnosis, clinical values, specialty and treatment details in the report against the guidelines and state whether the report is compliant.

### Extracted report:
%s

### Guidelines:
%s

### Analysis

1. Diagnosis and clinical values: check the HBV DNA level, histological activity index, fibrosis stage and the other biochemical criteria against the guideline thresholds for starting and continuing treatment. Respect the stated and/or relations between criteria.
2. Specialty: check which specialties the guidelines allow to issue the report.
3. Treatment and medication: compare the prescribed drugs and dosages with the guideline conditions, including the HBV DNA thresholds for continued treatment.
4. Conclusion: state whether the report is compliant and why. If it is not, name the specific values that fail and the criteria they fail against.`, text, string(guideJSON)), nil
}

func numericEntity(entities map[string]matcher.Entity, label string) float64 {
	entity, ok := entities[label]
	if !ok {
		return 0
	}
	value, ok := matcher.NumericValue(entity.Text)
	if !ok {
		return 0
	}
	return value
}
