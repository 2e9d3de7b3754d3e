package triage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Skufu/medicheck/internal/textnorm"
)

// Bundle pairs a keyword trigger set with the diagnoses and recommendations
// returned when one of the keywords appears in the symptom text.
type Bundle struct {
	Name            string   `yaml:"name"`
	Keywords        []string `yaml:"keywords"`
	Diagnoses       []string `yaml:"diagnoses"`
	Recommendations []string `yaml:"recommendations"`
}

// BundleSet is the priority-ordered list of keyword bundles plus the bundle
// used when nothing matches.
type BundleSet struct {
	Bundles []Bundle `yaml:"bundles"`
	Generic Bundle   `yaml:"generic"`
}

// DefaultBundles returns the built-in bundle table.
func DefaultBundles() BundleSet {
	return BundleSet{
		Bundles: []Bundle{
			{
				Name:      "respiratory",
				Keywords:  []string{"fever", "cough", "sore throat"},
				Diagnoses: []string{"Common Cold", "Flu", "Upper Respiratory Infection"},
				Recommendations: []string{
					"Rest and stay hydrated",
					"Take over-the-counter fever reducers if needed",
					"Monitor your temperature and symptoms",
					"Consult a doctor if symptoms persist beyond a week or worsen",
				},
			},
			{
				Name:      "neuro",
				Keywords:  []string{"headache", "nausea"},
				Diagnoses: []string{"Tension Headache", "Migraine", "Dehydration"},
				Recommendations: []string{
					"Drink plenty of water",
					"Rest in a quiet, dark room",
					"Avoid screens and bright lights",
					"Seek medical care if the headache is sudden or severe",
				},
			},
		},
		Generic: Bundle{
			Name:      "generic",
			Diagnoses: []string{"Common viral infection", "Respiratory condition", "Stress-related symptoms"},
			Recommendations: []string{
				"Consult a healthcare professional for proper evaluation",
				"Rest and stay hydrated",
				"Monitor symptoms closely",
				"Seek immediate care if symptoms worsen",
			},
		},
	}
}

// LoadBundles reads a bundle table from a YAML file. An empty path returns
// DefaultBundles.
func LoadBundles(path string) (BundleSet, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultBundles(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return BundleSet{}, fmt.Errorf("read bundles: %w", err)
	}
	var set BundleSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return BundleSet{}, fmt.Errorf("decode bundles %s: %w", path, err)
	}
	if err := set.Validate(); err != nil {
		return BundleSet{}, fmt.Errorf("bundles %s: %w", path, err)
	}
	return set, nil
}

// Validate checks that every bundle can produce a non-empty result.
func (s BundleSet) Validate() error {
	var errs []error
	for i, b := range s.Bundles {
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, fmt.Errorf("bundle %d: name is required", i))
		}
		if len(b.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("bundle %q: at least one keyword is required", b.Name))
		}
		for _, k := range b.Keywords {
			if textnorm.Normalize(k) == "" {
				errs = append(errs, fmt.Errorf("bundle %q: keyword %q is empty after normalization", b.Name, k))
			}
		}
		errs = append(errs, checkLists(b)...)
	}
	errs = append(errs, checkLists(s.Generic)...)
	return errors.Join(errs...)
}

func checkLists(b Bundle) []error {
	var errs []error
	if len(b.Diagnoses) == 0 {
		errs = append(errs, fmt.Errorf("bundle %q: diagnoses must not be empty", b.Name))
	}
	if len(b.Recommendations) == 0 {
		errs = append(errs, fmt.Errorf("bundle %q: recommendations must not be empty", b.Name))
	}
	return errs
}
