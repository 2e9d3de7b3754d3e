// Package app wires configuration into the gate, the optional remote model
// and the analyzer. Both the HTTP server and the CLI start from here.
package app

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/Skufu/medicheck/internal/config"
	"github.com/Skufu/medicheck/internal/gate"
	"github.com/Skufu/medicheck/internal/llm"
	"github.com/Skufu/medicheck/internal/triage"
)

type App struct {
	Gate       *gate.Gate
	Classifier *triage.Classifier
	Analyzer   *triage.Analyzer
	// ModelName is empty when no remote model is configured.
	ModelName string
}

func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	bundles, err := triage.LoadBundles(cfg.BundlesFile)
	if err != nil {
		return nil, err
	}

	provider, err := gate.NewGitHubProvider(gate.GitHubConfig{
		BaseURL: cfg.Gate.GitHubAPIURL,
		Token:   cfg.Gate.GitHubToken,
		Owner:   cfg.Gate.Owner,
		Repo:    cfg.Gate.Repo,
	}, logger)
	if err != nil {
		return nil, err
	}
	g := gate.New(provider, gate.Config{
		Owner:         cfg.Gate.Owner,
		Bypass:        cfg.Gate.Bypass,
		CheckUser:     cfg.Gate.CheckUser,
		ValidIdentity: gate.ValidLogin,
	}, logger)

	a := &App{Gate: g, Classifier: triage.NewClassifier(bundles)}

	opts := triage.Options{ModelTimeout: cfg.Model.Timeout, Logger: logger}
	model, err := llm.New(llm.Config{
		Provider:      cfg.Model.Provider,
		GeminiAPIKey:  cfg.Model.GeminiAPIKey,
		GeminiModel:   cfg.Model.GeminiModel,
		OpenAIAPIKey:  cfg.Model.OpenAIAPIKey,
		OpenAIModel:   cfg.Model.OpenAIModel,
		OpenAIBaseURL: cfg.Model.OpenAIBaseURL,
		Timeout:       cfg.Model.Timeout,
	}, logger)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		logger.Info().Str("provider", cfg.Model.Provider).Msg("no model API key, using keyword fallback only")
	case err != nil:
		return nil, err
	default:
		opts.Model = model
		a.ModelName = model.Name()
		logger.Info().Str("model", a.ModelName).Msg("remote model enabled")
	}

	a.Analyzer = triage.NewAnalyzer(g, a.Classifier, opts)
	return a, nil
}
