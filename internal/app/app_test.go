package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/medicheck/internal/config"
	"github.com/Skufu/medicheck/internal/triage"
)

func baseConfig() *config.Config {
	return &config.Config{
		Model: config.ModelConfig{Provider: "gemini"},
		Gate: config.GateConfig{
			Owner:     "sanatanisher01",
			Repo:      "Healthcare-symptoms",
			Bypass:    []string{"test", "demo"},
			CheckUser: true,
		},
	}
}

func TestNewWithoutModel(t *testing.T) {
	a, err := New(baseConfig(), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, a.ModelName)
	assert.False(t, a.Analyzer.ModelConfigured())

	got, err := a.Analyzer.Analyze(context.Background(),
		triage.Request{SymptomText: "I have a fever and cough", AgeGroup: triage.AgeAdult, Gender: triage.GenderMale}, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"Common Cold", "Flu", "Upper Respiratory Infection"}, got.Diagnoses)
	assert.Equal(t, triage.SourceFallback, got.Source)
}

func TestNewWithModel(t *testing.T) {
	cfg := baseConfig()
	cfg.Model.Provider = "openai"
	cfg.Model.OpenAIAPIKey = "sk-test"

	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", a.ModelName)
	assert.True(t, a.Analyzer.ModelConfigured())
}

func TestNewErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.Model.Provider = "palm"
	_, err := New(cfg, zerolog.Nop())
	require.Error(t, err)

	cfg = baseConfig()
	cfg.BundlesFile = filepath.Join(t.TempDir(), "bundles.yaml")
	require.NoError(t, os.WriteFile(cfg.BundlesFile, []byte("bundles: [:"), 0o600))
	_, err = New(cfg, zerolog.Nop())
	require.Error(t, err)
}
