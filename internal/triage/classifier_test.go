package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRespiratory(t *testing.T) {
	c := NewClassifier(DefaultBundles())
	for _, text := range []string{
		"I have a fever and cough",
		"FEVER since yesterday",
		"my Sore Throat hurts",
		"cough, headache and nausea",
	} {
		t.Run(text, func(t *testing.T) {
			r := c.Classify(text)
			assert.Equal(t, SourceFallback, r.Source)
			assert.Equal(t, []string{"Common Cold", "Flu", "Upper Respiratory Infection"}, r.Diagnoses)
			assert.Len(t, r.Recommendations, 4)
		})
	}
}

func TestClassifyNeuro(t *testing.T) {
	c := NewClassifier(DefaultBundles())
	for _, text := range []string{"Terrible HEADACHE", "nausea after lunch"} {
		r := c.Classify(text)
		assert.Equal(t, []string{"Tension Headache", "Migraine", "Dehydration"}, r.Diagnoses, text)
		assert.Equal(t, "neuro", c.Match(text).Name)
	}
}

func TestClassifyGeneric(t *testing.T) {
	c := NewClassifier(DefaultBundles())
	for _, text := range []string{"back pain", "", "itchy skin rash"} {
		r := c.Classify(text)
		assert.Equal(t, DefaultBundles().Generic.Diagnoses, r.Diagnoses, text)
		assert.NotEmpty(t, r.Recommendations)
		assert.LessOrEqual(t, len(r.Recommendations), MaxRecommendations)
	}
}

func TestClassifyDoesNotShareBundleSlices(t *testing.T) {
	c := NewClassifier(DefaultBundles())
	r := c.Classify("fever")
	r.Diagnoses[0] = "mutated"
	assert.Equal(t, "Common Cold", c.Classify("fever").Diagnoses[0])
}

func TestClassifyTruncatesLongBundles(t *testing.T) {
	set := BundleSet{
		Bundles: []Bundle{{
			Name:            "long",
			Keywords:        []string{"Rash"},
			Diagnoses:       []string{"a", "b", "c", "d"},
			Recommendations: []string{"1", "2", "3", "4", "5"},
		}},
		Generic: DefaultBundles().Generic,
	}
	r := NewClassifier(set).Classify("a rash on my arm")
	assert.Equal(t, []string{"a", "b", "c"}, r.Diagnoses)
	assert.Equal(t, []string{"1", "2", "3", "4"}, r.Recommendations)
}

func TestLoadBundles(t *testing.T) {
	set, err := LoadBundles("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBundles(), set)

	path := filepath.Join(t.TempDir(), "bundles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bundles:
  - name: stomach
    keywords: [stomach, diarrhea]
    diagnoses: [Gastroenteritis]
    recommendations: [Drink oral rehydration solution]
generic:
  name: generic
  diagnoses: [Unclear condition]
  recommendations: [See a doctor]
`), 0o600))

	set, err = LoadBundles(path)
	require.NoError(t, err)
	c := NewClassifier(set)
	assert.Equal(t, []string{"Gastroenteritis"}, c.Classify("Stomach cramps").Diagnoses)
	assert.Equal(t, []string{"Unclear condition"}, c.Classify("fever").Diagnoses)
}

func TestLoadBundlesPunctuatedKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bundles:
  - name: covid
    keywords: ["covid-19", "x-ray", "* Loss of smell"]
    diagnoses: [COVID]
    recommendations: [Isolate and get tested]
generic:
  name: generic
  diagnoses: [G]
  recommendations: [See a doctor]
`), 0o600))

	set, err := LoadBundles(path)
	require.NoError(t, err)
	c := NewClassifier(set)
	assert.Equal(t, []string{"COVID"}, c.Classify("I tested positive for COVID-19").Diagnoses)
	assert.Equal(t, []string{"COVID"}, c.Classify("the x-ray looked fine").Diagnoses)
	assert.Equal(t, []string{"COVID"}, c.Classify("sudden loss of smell").Diagnoses)
	assert.Equal(t, []string{"G"}, c.Classify("itchy elbow").Diagnoses)
}

func TestLoadBundlesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bundles:
  - name: empty
    keywords: []
generic:
  name: generic
`), 0o600))

	_, err := LoadBundles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword")
	assert.Contains(t, err.Error(), "diagnoses must not be empty")

	require.NoError(t, os.WriteFile(path, []byte(`
bundles:
  - name: dashes
    keywords: ["--"]
    diagnoses: [D]
    recommendations: [R]
generic:
  name: generic
  diagnoses: [G]
  recommendations: [R]
`), 0o600))
	_, err = LoadBundles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty after normalization")

	_, err = LoadBundles(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	g, err := ParseAgeGroup(" senior ")
	require.NoError(t, err)
	assert.Equal(t, AgeSenior, g)
	_, err = ParseAgeGroup("toddler")
	assert.Error(t, err)

	s, err := ParseGender("FEMALE")
	require.NoError(t, err)
	assert.Equal(t, GenderFemale, s)
	_, err = ParseGender("")
	assert.Error(t, err)
}
