package decision_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eczanem/pharmatrack-backend/internal/reports/decision"
)

var now = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func eligibleInput() decision.EligibilityInput {
	return decision.EligibilityInput{
		PTH:           650,
		Albumin:       9.5,
		Phosphorus:    4.0,
		PatientType:   decision.PatientHemodialysis,
		TreatmentForm: decision.FormParenteral,
		Specialty:     "nephrology",
		FirstReport:   true,
		LabResultDate: now.AddDate(0, 0, -10),
	}
}

func TestEvaluateParicalcitol_Prescribable(t *testing.T) {
	d := decision.EvaluateParicalcitol(eligibleInput(), now)
	assert.Equal(t, decision.OutcomePrescribable, d.Outcome)
}

func TestEvaluateParicalcitol_StaleLabResults(t *testing.T) {
	in := eligibleInput()
	in.LabResultDate = now.AddDate(0, 0, -91)

	d := decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomeLabResultsStale, d.Outcome)
}

func TestEvaluateParicalcitol_TerminationThresholds(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*decision.EligibilityInput)
	}{
		{"low PTH", func(in *decision.EligibilityInput) { in.PTH = 149 }},
		{"high albumin", func(in *decision.EligibilityInput) { in.Albumin = 10.6 }},
		{"high phosphorus", func(in *decision.EligibilityInput) { in.Phosphorus = 6.1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := eligibleInput()
			tc.modify(&in)

			d := decision.EvaluateParicalcitol(in, now)
			assert.Equal(t, decision.OutcomeTerminate, d.Outcome)

			// Termination applies to follow-up reports too.
			in.FirstReport = false
			d = decision.EvaluateParicalcitol(in, now)
			assert.Equal(t, decision.OutcomeTerminate, d.Outcome)
		})
	}
}

func TestEvaluateParicalcitol_FollowUpReview(t *testing.T) {
	in := eligibleInput()
	in.FirstReport = false

	d := decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomeFollowUpReview, d.Outcome)
}

func TestEvaluateParicalcitol_SerumLevelsOutOfRange(t *testing.T) {
	in := eligibleInput()
	in.Albumin = 10.3 // below the 10.5 termination threshold but above the 10.2 start limit

	d := decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomeSerumLevelsExceed, d.Outcome)
}

func TestEvaluateParicalcitol_PTHConditions(t *testing.T) {
	in := eligibleInput()
	in.PTH = 400
	in.ALTIncreased = false

	d := decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomePTHNotMet, d.Outcome)

	// The same PTH with an ALT increase clears the threshold.
	in.ALTIncreased = true
	d = decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomePrescribable, d.Outcome)
}

func TestEvaluateParicalcitol_DoctorQualification(t *testing.T) {
	in := eligibleInput()
	in.Specialty = "dermatology"

	d := decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomeDoctorNotQualified, d.Outcome)
}

func TestEvaluateParicalcitol_PeritonealDialysisOral(t *testing.T) {
	in := eligibleInput()
	in.PatientType = decision.PatientPeritonealDialysis
	in.TreatmentForm = decision.FormOral

	d := decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomePrescribable, d.Outcome)

	// Only nephrology may prescribe the oral form.
	in.Specialty = "internal_medicine"
	d = decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomeDoctorNotQualified, d.Outcome)
}

func TestEvaluateParicalcitol_PatientFormMismatch(t *testing.T) {
	in := eligibleInput()
	in.PatientType = decision.PatientPeritonealDialysis
	in.TreatmentForm = decision.FormParenteral

	d := decision.EvaluateParicalcitol(in, now)
	assert.Equal(t, decision.OutcomePatientFormInvalid, d.Outcome)
}
