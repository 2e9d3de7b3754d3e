package triage

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/Skufu/medicheck/internal/textnorm"
)

// Thresholds and trigger words of the line heuristic. Changing any of them
// changes which model lines become entries.
const minEntryRunes = 15

var (
	diagnosisTriggers      = []string{"diagnos", "possible", "condition"}
	recommendationTriggers = []string{"recommend", "advice", "suggest", "step"}
	advisoryVerbs          = []string{"consult", "see", "visit", "call", "seek", "rest", "monitor"}
)

type section int

const (
	sectionNone section = iota
	sectionDiagnoses
	sectionRecommendations
)

type structuredOutput struct {
	Diagnoses       []string `json:"diagnoses"`
	Recommendations []string `json:"recommendations"`
}

// ParseModelOutput extracts diagnoses and recommendations from raw model
// text. A JSON object embedded anywhere in the text wins as long as one of
// its lists has an entry; otherwise lines are sorted into sections
// heuristically. ErrParseFailure is returned when both lists end up empty. The Source of the result is left unset.
func ParseModelOutput(raw string) (Result, error) {
	if r, ok := parseStructured(raw); ok {
		return r.truncate(), nil
	}
	r := parseLines(raw)
	if len(r.Diagnoses) == 0 && len(r.Recommendations) == 0 {
		return Result{}, ErrParseFailure
	}
	return r.truncate(), nil
}

func parseStructured(raw string) (Result, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Result{}, false
	}
	var out structuredOutput
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return Result{}, false
	}
	r := Result{
		Diagnoses:       trimEntries(out.Diagnoses),
		Recommendations: trimEntries(out.Recommendations),
	}
	if len(r.Diagnoses) == 0 && len(r.Recommendations) == 0 {
		return Result{}, false
	}
	return r, true
}

func trimEntries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseLines(raw string) Result {
	var r Result
	current := sectionNone
	for _, line := range strings.Split(raw, "\n") {
		entry := textnorm.Clean(line)
		lower := strings.ToLower(entry)
		switch {
		case textnorm.ContainsAny(lower, diagnosisTriggers):
			current = sectionDiagnoses
		case textnorm.ContainsAny(lower, recommendationTriggers):
			current = sectionRecommendations
		case utf8.RuneCountInString(entry) > minEntryRunes:
			switch current {
			case sectionDiagnoses:
				r.Diagnoses = append(r.Diagnoses, entry)
			case sectionRecommendations:
				r.Recommendations = append(r.Recommendations, entry)
			default:
				if textnorm.ContainsAny(lower, advisoryVerbs) {
					r.Recommendations = append(r.Recommendations, entry)
				} else {
					r.Diagnoses = append(r.Diagnoses, entry)
				}
			}
		}
	}
	return r
}
