// Package gate decides whether a caller may use the symptom checker. A caller
// is let through when listed in the bypass set or when the capability
// provider confirms they starred the project repository.
package gate

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ReasonBypass           = "bypass"
	ReasonGranted          = "granted"
	ReasonIdentityRequired = "identity required"
	ReasonIdentityNotFound = "identity not found"
	ReasonNotStarred       = "repository not starred yet"
	ReasonRateLimited      = "rate limited, retry later"
	ReasonUnavailable      = "verification unavailable"
)

// DefaultBypass lists identities admitted without any outbound call.
var DefaultBypass = []string{"test", "demo"}

var tracer = otel.Tracer("github.com/Skufu/medicheck/internal/gate")

// Decision is derived fresh on every request and never cached.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func granted(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func denied(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Outcome is a capability provider answer with transport details removed.
type Outcome int

const (
	OutcomeUnavailable Outcome = iota
	OutcomeConfirmed
	OutcomeNotFound
	OutcomeRateLimited
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "unavailable"
	}
}

// Provider answers identity and capability queries. A non-nil error is a
// transport failure and is treated as OutcomeUnavailable.
type Provider interface {
	LookupUser(ctx context.Context, identity string) (Outcome, error)
	CheckStar(ctx context.Context, identity string) (Outcome, error)
}

type Config struct {
	// Owner is admitted like a bypass identity.
	Owner  string
	Bypass []string
	// CheckUser looks the identity up before the star check so unknown
	// users get a clearer reason.
	CheckUser bool
	// ValidIdentity, when set, rejects malformed identities before any
	// provider call.
	ValidIdentity func(string) bool
}

type Gate struct {
	provider  Provider
	bypass    map[string]struct{}
	checkUser bool
	valid     func(string) bool
	log       zerolog.Logger
}

func New(p Provider, cfg Config, logger zerolog.Logger) *Gate {
	bypass := make(map[string]struct{}, len(cfg.Bypass)+1)
	for _, id := range append(append([]string(nil), cfg.Bypass...), cfg.Owner) {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			bypass[id] = struct{}{}
		}
	}
	return &Gate{
		provider:  p,
		bypass:    bypass,
		checkUser: cfg.CheckUser,
		valid:     cfg.ValidIdentity,
		log:       logger.With().Str("component", "gate").Logger(),
	}
}

// Bypassed reports whether identity skips verification.
func (g *Gate) Bypassed(identity string) bool {
	_, ok := g.bypass[strings.ToLower(strings.TrimSpace(identity))]
	return ok
}

// Decide moves an identity from unchecked to granted or denied. No retries
// are made; callers re-invoke.
func (g *Gate) Decide(ctx context.Context, identity string) Decision {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return denied(ReasonIdentityRequired)
	}
	if g.Bypassed(identity) {
		g.log.Debug().Str("identity", identity).Msg("bypass identity")
		return granted(ReasonBypass)
	}
	if g.valid != nil && !g.valid(identity) {
		g.log.Debug().Str("identity", identity).Msg("malformed identity")
		return denied(ReasonIdentityNotFound)
	}
	if g.provider == nil {
		return denied(ReasonUnavailable)
	}

	ctx, span := tracer.Start(ctx, "gate.decide")
	defer span.End()

	if g.checkUser {
		o, err := g.provider.LookupUser(ctx, identity)
		if err != nil {
			g.log.Warn().Err(err).Str("identity", identity).Msg("user lookup failed")
			o = OutcomeUnavailable
		}
		if o != OutcomeConfirmed {
			d := deniedFor(o, ReasonIdentityNotFound)
			g.record(span, identity, "user", o, d)
			return d
		}
	}

	o, err := g.provider.CheckStar(ctx, identity)
	if err != nil {
		g.log.Warn().Err(err).Str("identity", identity).Msg("star check failed")
		o = OutcomeUnavailable
	}
	var d Decision
	if o == OutcomeConfirmed {
		d = granted(ReasonGranted)
	} else {
		d = deniedFor(o, ReasonNotStarred)
	}
	g.record(span, identity, "star", o, d)
	return d
}

func deniedFor(o Outcome, notFound string) Decision {
	switch o {
	case OutcomeNotFound:
		return denied(notFound)
	case OutcomeRateLimited:
		return denied(ReasonRateLimited)
	default:
		return denied(ReasonUnavailable)
	}
}

func (g *Gate) record(span trace.Span, identity, step string, o Outcome, d Decision) {
	span.SetAttributes(
		attribute.String("gate.step", step),
		attribute.String("gate.outcome", o.String()),
		attribute.Bool("gate.allowed", d.Allowed),
	)
	g.log.Info().
		Str("identity", identity).
		Str("step", step).
		Stringer("outcome", o).
		Bool("allowed", d.Allowed).
		Msg("gate decision")
}
