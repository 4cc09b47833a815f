package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eczanem/pharmatrack-backend/internal/reports/matcher"
)

const sampleReport = `
Tanı: Kronik böbrek yetmezliği tanımlanmamış
PTH: 652.4 µg/L
Albümin: 9.8 g/L
Fosfor: 4.2 mg/dL
Kalsiyum: 8.9 mg/dL
Diyalizat kalsiyum 1.25 mmol/L
Parikalsitol parenteral haftada 3 x 5 µg
`

func TestMatch_ExtractsAllEntities(t *testing.T) {
	m := matcher.New()

	entities := m.Match(sampleReport)

	for _, label := range []string{
		matcher.LabelDiagnosis,
		matcher.LabelPTH,
		matcher.LabelAlbumin,
		matcher.LabelPhosphorus,
		matcher.LabelCalcium,
		matcher.LabelDialysateCalcium,
		matcher.LabelMedication,
	} {
		assert.Contains(t, entities, label)
	}
}

func TestMatch_NumericValues(t *testing.T) {
	m := matcher.New()

	entities := m.Match(sampleReport)

	cases := map[string]float64{
		matcher.LabelPTH:              652.4,
		matcher.LabelAlbumin:          9.8,
		matcher.LabelPhosphorus:       4.2,
		matcher.LabelCalcium:          8.9,
		matcher.LabelDialysateCalcium: 1.25,
	}
	for label, want := range cases {
		entity, ok := entities[label]
		require.True(t, ok, label)
		value, ok := matcher.NumericValue(entity.Text)
		require.True(t, ok, label)
		assert.InDelta(t, want, value, 0.001, label)
	}
}

func TestMatch_IntegerValueWithoutFraction(t *testing.T) {
	m := matcher.New()

	entities := m.Match("PTH: 700 µg/L")

	entity, ok := entities[matcher.LabelPTH]
	require.True(t, ok)
	value, ok := matcher.NumericValue(entity.Text)
	require.True(t, ok)
	assert.InDelta(t, 700, value, 0.001)
}

func TestMatch_CaseInsensitiveKeywords(t *testing.T) {
	m := matcher.New()

	entities := m.Match("fosfor 5.1 mg/dl")

	assert.Contains(t, entities, matcher.LabelPhosphorus)
}

func TestMatch_UnitMismatchDoesNotMatch(t *testing.T) {
	m := matcher.New()

	// Phosphorus is reported in mg/dL; a g/L reading must not be taken
	// for it.
	entities := m.Match("Fosfor: 4.2 g/L")

	assert.NotContains(t, entities, matcher.LabelPhosphorus)
}

func TestMatch_CalciumDoesNotSwallowDialysateCalcium(t *testing.T) {
	m := matcher.New()

	entities := m.Match("Diyalizat kalsiyum 1.25 mmol/L ve Kalsiyum: 8.9 mg/dL")

	require.Contains(t, entities, matcher.LabelDialysateCalcium)
	require.Contains(t, entities, matcher.LabelCalcium)

	value, ok := matcher.NumericValue(entities[matcher.LabelCalcium].Text)
	require.True(t, ok)
	assert.InDelta(t, 8.9, value, 0.001)
}

func TestMatch_EmptyText(t *testing.T) {
	m := matcher.New()

	assert.Empty(t, m.Match(""))
}

func TestNumericValue_NoNumber(t *testing.T) {
	_, ok := matcher.NumericValue("tanı kronik böbrek yetmezliği")
	assert.False(t, ok)
}
