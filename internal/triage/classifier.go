package triage

import (
	"github.com/Skufu/medicheck/internal/textnorm"
)

// Classifier maps symptom text to a fixed bundle by keyword membership.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	bundles []Bundle
	generic Bundle
}

// NewClassifier builds a classifier over set. Keywords go through the same
// normalizer as symptom text, so list markers and case never block a match.
func NewClassifier(set BundleSet) *Classifier {
	c := &Classifier{generic: set.Generic}
	for _, b := range set.Bundles {
		kw := make([]string, 0, len(b.Keywords))
		for _, k := range b.Keywords {
			if k = textnorm.Normalize(k); k != "" {
				kw = append(kw, k)
			}
		}
		b.Keywords = kw
		c.bundles = append(c.bundles, b)
	}
	return c
}

// Classify returns the first bundle whose keywords appear in symptomText,
// or the generic bundle. It never fails.
func (c *Classifier) Classify(symptomText string) Result {
	return resultFrom(c.Match(symptomText), SourceFallback)
}

// Match returns the bundle Classify would use.
func (c *Classifier) Match(symptomText string) Bundle {
	text := textnorm.Normalize(symptomText)
	for _, b := range c.bundles {
		if textnorm.ContainsAny(text, b.Keywords) {
			return b
		}
	}
	return c.generic
}

func resultFrom(b Bundle, src Source) Result {
	return Result{
		Diagnoses:       append([]string(nil), b.Diagnoses...),
		Recommendations: append([]string(nil), b.Recommendations...),
		Source:          src,
	}.truncate()
}
