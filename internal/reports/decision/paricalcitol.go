// Package decision evaluates dialysis treatment reports against the
// reimbursement rules for paricalcitol and the hepatitis treatment guide.
package decision

import (
	"time"
)

// Patient types
const (
	PatientHemodialysis       = "hemodialysis"
	PatientPeritonealDialysis = "peritoneal_dialysis"
)

// Treatment forms
const (
	FormParenteral = "parenteral"
	FormOral       = "oral"
)

// Doctor specialties allowed to prescribe parenteral paricalcitol for
// hemodialysis patients
var hemodialysisSpecialties = map[string]bool{
	"nephrology":         true,
	"internal_medicine":  true,
	"pediatrics":         true,
	"dialysis_certified": true,
}

// Outcome codes for a paricalcitol eligibility evaluation
type Outcome string

const (
	OutcomeLabResultsStale    Outcome = "LAB_RESULTS_STALE"
	OutcomeTerminate          Outcome = "TERMINATE_TREATMENT"
	OutcomeFollowUpReview     Outcome = "FOLLOW_UP_REVIEW"
	OutcomeSerumLevelsExceed  Outcome = "SERUM_LEVELS_EXCEEDED"
	OutcomePTHNotMet          Outcome = "PTH_CONDITIONS_NOT_MET"
	OutcomeDoctorNotQualified Outcome = "DOCTOR_NOT_QUALIFIED"
	OutcomePatientFormInvalid Outcome = "PATIENT_FORM_MISMATCH"
	OutcomePrescribable       Outcome = "PRESCRIBABLE"
)

// Decision is the outcome of an eligibility evaluation
type Decision struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
}

// EligibilityInput carries the lab values and report context for one
// paricalcitol evaluation
type EligibilityInput struct {
	PTH           float64   `json:"pth"`
	ALTIncreased  bool      `json:"alt_increased"`
	Albumin       float64   `json:"albumin"`
	Phosphorus    float64   `json:"phosphorus"`
	PatientType   string    `json:"patient_type"`
	TreatmentForm string    `json:"treatment_form"`
	Specialty     string    `json:"specialty"`
	FirstReport   bool      `json:"first_report"`
	LabResultDate time.Time `json:"lab_result_date"`
}

// labResultMaxAge is how old lab results may be before the report is invalid
const labResultMaxAge = 90 * 24 * time.Hour

// EvaluateParicalcitol walks the reimbursement rule tree for one report.
// Termination thresholds apply to first and follow-up reports alike; the
// start criteria only apply to first reports.
func EvaluateParicalcitol(in EligibilityInput, now time.Time) Decision {
	if in.LabResultDate.Before(now.Add(-labResultMaxAge)) {
		return Decision{
			Outcome: OutcomeLabResultsStale,
			Message: "lab results are older than 3 months, the treatment report is not valid",
		}
	}

	if in.PTH < 150 || in.Albumin > 10.5 || in.Phosphorus > 6 {
		return Decision{
			Outcome: OutcomeTerminate,
			Message: "paricalcitol treatment must be terminated",
		}
	}

	if !in.FirstReport {
		return Decision{
			Outcome: OutcomeFollowUpReview,
			Message: "treatment conditions must be reviewed on the follow-up report",
		}
	}

	if !(in.Albumin < 10.2 && in.Phosphorus < 5.5) {
		return Decision{
			Outcome: OutcomeSerumLevelsExceed,
			Message: "paricalcitol treatment cannot be started, serum calcium or phosphorus levels are out of range",
		}
	}

	if !(in.PTH > 600 || (in.PTH > 300 && in.ALTIncreased)) {
		return Decision{
			Outcome: OutcomePTHNotMet,
			Message: "paricalcitol treatment cannot be started, PTH conditions are not met",
		}
	}

	switch {
	case in.PatientType == PatientHemodialysis && in.TreatmentForm == FormParenteral:
		if !hemodialysisSpecialties[in.Specialty] {
			return Decision{
				Outcome: OutcomeDoctorNotQualified,
				Message: "the prescribing doctor is not qualified for this treatment",
			}
		}
		return Decision{
			Outcome: OutcomePrescribable,
			Message: "parenteral paricalcitol can be prescribed for hemodialysis patients",
		}
	case in.PatientType == PatientPeritonealDialysis && in.TreatmentForm == FormOral:
		if in.Specialty != "nephrology" {
			return Decision{
				Outcome: OutcomeDoctorNotQualified,
				Message: "the prescribing doctor is not qualified for this treatment",
			}
		}
		return Decision{
			Outcome: OutcomePrescribable,
			Message: "oral paricalcitol can be prescribed for peritoneal dialysis patients",
		}
	default:
		return Decision{
			Outcome: OutcomePatientFormInvalid,
			Message: "treatment conditions are met but the patient type or treatment form does not match",
		}
	}
}
