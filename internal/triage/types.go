// Package triage resolves symptom descriptions into candidate conditions and
// next-step recommendations, using a remote model when one is configured and
// a deterministic keyword classifier otherwise.
package triage

import (
	"fmt"
	"strings"
)

const (
	MaxDiagnoses       = 3
	MaxRecommendations = 4
)

type AgeGroup string

const (
	AgeChild  AgeGroup = "Child"
	AgeTeen   AgeGroup = "Teen"
	AgeAdult  AgeGroup = "Adult"
	AgeSenior AgeGroup = "Senior"
)

var ageGroups = []AgeGroup{AgeChild, AgeTeen, AgeAdult, AgeSenior}

// ParseAgeGroup matches s case-insensitively against the known age groups.
func ParseAgeGroup(s string) (AgeGroup, error) {
	for _, g := range ageGroups {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown age group %q", s)
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

var genders = []Gender{GenderMale, GenderFemale, GenderOther}

// ParseGender matches s case-insensitively against the known genders.
func ParseGender(s string) (Gender, error) {
	for _, g := range genders {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Source tells where a Result came from.
type Source string

const (
	SourceRemoteModel Source = "RemoteModel"
	SourceFallback    Source = "Fallback"
)

// Request is a single symptom analysis request.
type Request struct {
	SymptomText string
	AgeGroup    AgeGroup
	Gender      Gender
}

// Result holds ordered diagnoses (at most MaxDiagnoses) and recommendations
// (at most MaxRecommendations).
type Result struct {
	Diagnoses       []string `json:"diagnoses"`
	Recommendations []string `json:"recommendations"`
	Source          Source   `json:"source"`
}

// truncate caps both lists in place, preserving order.
func (r Result) truncate() Result {
	if len(r.Diagnoses) > MaxDiagnoses {
		r.Diagnoses = r.Diagnoses[:MaxDiagnoses]
	}
	if len(r.Recommendations) > MaxRecommendations {
		r.Recommendations = r.Recommendations[:MaxRecommendations]
	}
	return r
}
