// Package matcher extracts clinical entities from Turkish dialysis report
// text by matching token patterns.
package matcher

import (
	"strconv"
	"strings"
	"unicode"
)

// Entity labels
const (
	LabelDialysateCalcium = "DIALYSATE_CALCIUM"
	LabelAlbumin          = "ALBUMIN"
	LabelPTH              = "PTH"
	LabelPhosphorus       = "PHOSPHORUS"
	LabelCalcium          = "CALCIUM"
	LabelDiagnosis        = "DIAGNOSIS"
	LabelMedication       = "MEDICATION"
)

// Entity is one matched span of report text
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// token is one predicate in a pattern. Optional tokens may be skipped.
type token struct {
	match    func(string) bool
	optional bool
}

func lower(want string) token {
	return token{match: func(s string) bool { return strings.ToLower(s) == want }}
}

func optLower(want string) token {
	return token{match: func(s string) bool { return strings.ToLower(s) == want }, optional: true}
}

func text(want string) token {
	return token{match: func(s string) bool { return s == want }}
}

func optText(want string) token {
	return token{match: func(s string) bool { return s == want }, optional: true}
}

func number() token {
	return token{match: isNumber}
}

func optNumber() token {
	return token{match: isNumber, optional: true}
}

func optPunct() token {
	return token{match: isPunct, optional: true}
}

func digits() token {
	return token{match: func(s string) bool {
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return s != ""
	}}
}

type pattern struct {
	label  string
	tokens []token
}

// patterns describe the entities found on dialysis lab reports. Numeric
// values may be split by the tokenizer into "4 . 5", so each value slot is a
// number followed by an optional point and fraction.
var patterns = []pattern{
	{LabelDialysateCalcium, []token{
		lower("diyalizat"), lower("kalsiyum"),
		number(), optText("."), optNumber(),
		lower("mmol"), lower("/"), text("L"),
	}},
	{LabelAlbumin, []token{
		lower("albümin"), optPunct(),
		number(), optText("."), optNumber(),
		lower("g"), lower("/"), text("L"),
	}},
	{LabelPTH, []token{
		lower("pth"), optPunct(),
		number(), optText("."), optNumber(),
		lower("µg"), lower("/"), text("L"),
	}},
	{LabelPhosphorus, []token{
		lower("fosfor"), optPunct(),
		number(), optText("."), optNumber(),
		lower("mg"), lower("/"), lower("dl"),
	}},
	{LabelCalcium, []token{
		lower("kalsiyum"), optPunct(),
		number(), optText("."), optNumber(),
		lower("mg"), lower("/"), lower("dl"),
	}},
	{LabelDiagnosis, []token{
		lower("tanı"), optPunct(),
		lower("kronik"), lower("böbrek"), lower("yetmezliği"),
		optLower("tanımlanmamış"),
	}},
	{LabelMedication, []token{
		lower("parikalsitol"), lower("parenteral"), lower("haftada"),
		digits(), lower("x"), digits(), lower("µg"),
	}},
}

// Matcher finds clinical entities in free report text
type Matcher struct {
	patterns []pattern
}

// New creates a matcher with the built-in clinical patterns
func New() *Matcher {
	return &Matcher{patterns: patterns}
}

// Match tokenizes the text and returns every entity found. When a label
// matches more than once the last match wins, mirroring how reports repeat a
// header value in the body.
func (m *Matcher) Match(reportText string) map[string]Entity {
	tokens := tokenize(reportText)
	found := make(map[string]Entity)

	for _, p := range m.patterns {
		for start := range tokens {
			if end, ok := matchAt(p.tokens, tokens, start); ok {
				found[p.label] = Entity{
					Label: p.label,
					Text:  strings.Join(tokens[start:end], " "),
				}
			}
		}
	}

	return found
}

// matchAt tries the pattern against tokens starting at start, returning the
// end index of the match. Optional tokens are taken greedily.
func matchAt(pat []token, tokens []string, start int) (int, bool) {
	pos := start
	for _, t := range pat {
		if pos < len(tokens) && t.match(tokens[pos]) {
			pos++
			continue
		}
		if t.optional {
			continue
		}
		return 0, false
	}
	return pos, true
}

// tokenize splits text on whitespace and separates punctuation into its own
// tokens, so "Albümin: 4.2 g/L" becomes ["Albümin", ":", "4", ".", "2", "g", "/", "L"].
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isPunctRune(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// NumericValue parses the numeric reading out of a matched entity text,
// rejoining values the tokenizer split around a decimal point.
func NumericValue(entityText string) (float64, bool) {
	tokens := strings.Fields(entityText)
	for i, tok := range tokens {
		if !isNumber(tok) {
			continue
		}
		raw := tok
		if i+2 < len(tokens) && tokens[i+1] == "." && isNumber(tokens[i+2]) {
			raw = tok + "." + tokens[i+2]
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isPunct(s string) bool {
	if len([]rune(s)) != 1 {
		return false
	}
	return isPunctRune([]rune(s)[0])
}

func isPunctRune(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
