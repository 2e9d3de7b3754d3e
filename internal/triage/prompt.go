package triage

import (
	"fmt"
	"strings"
)

// BuildPrompt embeds the patient profile and symptoms into a single prompt
// asking for a JSON object. Parsing tolerates models that answer in prose.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a medical AI assistant helping with symptom triage.\n")
	fmt.Fprintf(&b, "Patient: %s %s.\n", req.AgeGroup, req.Gender)
	fmt.Fprintf(&b, "Symptoms: %s\n", strings.TrimSpace(req.SymptomText))
	fmt.Fprintf(&b, "Provide: 1) Possible diagnoses (2-%d conditions) 2) Recommendations (3-%d steps).\n",
		MaxDiagnoses, MaxRecommendations)
	b.WriteString(`Answer with a JSON object only: {"diagnoses": [string], "recommendations": [string]}`)
	return b.String()
}
