package decision

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// HepatitisType classifies a report into one hepatitis treatment category
type HepatitisType string

const (
	HepatitisBChronic    HepatitisType = "chronic_hepatitis_b"
	HepatitisBCirrhosis  HepatitisType = "hepatitis_b_cirrhosis"
	LiverTransplantation HepatitisType = "liver_transplantation"
	HepatitisDChronic    HepatitisType = "chronic_hepatitis_d"
	HepatitisCChronic    HepatitisType = "chronic_hepatitis_c"
	HepatitisCAcute      HepatitisType = "acute_hepatitis_c"
	HepatitisUnknown     HepatitisType = "unknown"
)

// guideSections maps a classification to its section key in the guide file
var guideSections = map[HepatitisType]string{
	HepatitisBChronic:    "kronik_hepatit_b",
	HepatitisBCirrhosis:  "hepatit_b_karaciger_sirozu",
	LiverTransplantation: "karaciger_transplantasyonu",
	HepatitisDChronic:    "kronik_hepatit_d",
	HepatitisCChronic:    "kronik_hepatit_c",
	HepatitisCAcute:      "akut_hepatit_c",
}

// alwaysIncluded sections apply to every classification
var alwaysIncluded = []string{
	"karaciger_biyopsisi",
	"immunsupresif_ilac_tedavisi",
	"genel_bilgiler",
}

// ClassifyHepatitis classifies Turkish report text by keyword. The first
// matching category wins, so hepatitis B markers shadow the cirrhosis
// markers they can co-occur with.
func ClassifyHepatitis(text string) HepatitisType {
	text = strings.ToLower(text)

	switch {
	case strings.Contains(text, "kronik hepatit b"),
		strings.Contains(text, "hbv dna"),
		strings.Contains(text, "entekavir"):
		return HepatitisBChronic
	case strings.Contains(text, "karaciğer sirozu"),
		strings.Contains(text, "fibrozis"),
		strings.Contains(text, "hbv dna (+)"):
		return HepatitisBCirrhosis
	case strings.Contains(text, "karaciğer transplantasyonu"):
		return LiverTransplantation
	case strings.Contains(text, "hepatit d"),
		strings.Contains(text, "delta ajanlı"),
		strings.Contains(text, "anti hdv"):
		return HepatitisDChronic
	case strings.Contains(text, "hepatit c"),
		strings.Contains(text, "hcv rna"),
		strings.Contains(text, "sofosbuvir"):
		return HepatitisCChronic
	case strings.Contains(text, "akut hepatit c"),
		strings.Contains(text, "pegile interferon"),
		strings.Contains(text, "ribavirin"):
		return HepatitisCAcute
	}

	return HepatitisUnknown
}

// Guide is the hepatitis treatment guideline document. Section contents are
// kept opaque, they exist to be quoted into the compliance prompt.
type Guide struct {
	Sections map[string]json.RawMessage `json:"hepatit_tedavisi"`
}

// LoadGuide reads the guideline file from disk
func LoadGuide(path string) (*Guide, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guide file: %w", err)
	}

	var guide Guide
	if err := json.Unmarshal(raw, &guide); err != nil {
		return nil, fmt.Errorf("parse guide file: %w", err)
	}

	return &guide, nil
}

// RelevantSections selects the guide section for the classification plus the
// sections that apply to every report.
func (g *Guide) RelevantSections(t HepatitisType) map[string]json.RawMessage {
	relevant := make(map[string]json.RawMessage)

	if key, ok := guideSections[t]; ok {
		if section, ok := g.Sections[key]; ok {
			relevant[key] = section
		}
	}

	for _, key := range alwaysIncluded {
		if section, ok := g.Sections[key]; ok {
			relevant[key] = section
		}
	}

	return relevant
}
