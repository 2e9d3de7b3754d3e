package triage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skufu/medicheck/internal/gate"
)

const DefaultModelTimeout = 30 * time.Second

var tracer = otel.Tracer("github.com/Skufu/medicheck/internal/triage")

// Gatekeeper decides whether an identity may run an analysis.
type Gatekeeper interface {
	Decide(ctx context.Context, identity string) gate.Decision
}

// Model is a remote text-generation backend.
type Model interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Defaults substituted when model output yields no usable entries.
var (
	defaultDiagnoses = []string{"Respiratory condition", "Viral infection", "General health concern"}

	defaultRecommendations = []string{
		"Consult a healthcare professional for proper evaluation",
		"Monitor symptoms and seek care if they worsen",
		"Rest and stay hydrated",
		"Call emergency services if experiencing severe symptoms",
	}
)

type Options struct {
	// Model is optional; nil means every analysis uses the classifier.
	Model        Model
	ModelTimeout time.Duration
	Logger       zerolog.Logger
}

// Analyzer runs the gate, the optional model call and the fallback
// classifier. It holds no per-request state.
type Analyzer struct {
	gate       Gatekeeper
	classifier *Classifier
	model      Model
	timeout    time.Duration
	log        zerolog.Logger
}

func NewAnalyzer(g Gatekeeper, c *Classifier, opts Options) *Analyzer {
	timeout := opts.ModelTimeout
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	return &Analyzer{
		gate:       g,
		classifier: c,
		model:      opts.Model,
		timeout:    timeout,
		log:        opts.Logger.With().Str("component", "analyzer").Logger(),
	}
}

// ModelConfigured reports whether a remote model is wired in.
func (a *Analyzer) ModelConfigured() bool { return a.model != nil }

// Analyze validates req, checks identity with the gate and resolves the
// result. Only validation and access errors are returned; model failures
// fall back to the classifier.
func (a *Analyzer) Analyze(ctx context.Context, req Request, identity string) (Result, error) {
	if strings.TrimSpace(req.SymptomText) == "" {
		return Result{}, ErrEmptySymptoms
	}
	if strings.TrimSpace(identity) == "" {
		return Result{}, &AccessDeniedError{Reason: gate.ReasonIdentityRequired}
	}

	decision := a.gate.Decide(ctx, identity)
	if !decision.Allowed {
		a.log.Info().Str("identity", identity).Str("reason", decision.Reason).Msg("analysis denied")
		return Result{}, &AccessDeniedError{Reason: decision.Reason}
	}

	if a.model != nil {
		r, err := a.remote(ctx, req)
		if err == nil {
			return r.truncate(), nil
		}
		a.log.Warn().Err(err).Str("model", a.model.Name()).Msg("model call failed, using fallback classifier")
	}

	b := a.classifier.Match(req.SymptomText)
	a.log.Debug().Str("bundle", b.Name).Msg("fallback analysis")
	return resultFrom(b, SourceFallback), nil
}

// remote returns an error only for failures of the call itself; unusable
// output is repaired with defaults.
func (a *Analyzer) remote(ctx context.Context, req Request) (Result, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	callCtx, span := tracer.Start(callCtx, "triage.model", trace.WithAttributes(
		attribute.String("triage.model", a.model.Name()),
		attribute.String("triage.age_group", string(req.AgeGroup)),
		attribute.String("triage.gender", string(req.Gender)),
	))
	defer span.End()

	start := time.Now()
	a.log.Debug().Str("model", a.model.Name()).Msg("calling model")
	raw, err := a.model.Generate(callCtx, BuildPrompt(req))
	if err == nil && strings.TrimSpace(raw) == "" {
		err = errors.New("empty model output")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	r, perr := ParseModelOutput(raw)
	if perr != nil {
		a.log.Warn().Err(perr).Int("raw_len", len(raw)).Msg("substituting default analysis")
	}
	if len(r.Diagnoses) == 0 {
		r.Diagnoses = append([]string(nil), defaultDiagnoses...)
	}
	if len(r.Recommendations) == 0 {
		r.Recommendations = append([]string(nil), defaultRecommendations...)
	}
	r.Source = SourceRemoteModel

	span.SetAttributes(attribute.Bool("triage.parse_failure", perr != nil))
	a.log.Info().
		Str("model", a.model.Name()).
		Dur("duration", time.Since(start)).
		Int("diagnoses", len(r.Diagnoses)).
		Int("recommendations", len(r.Recommendations)).
		Msg("model analysis complete")
	return r, nil
}
