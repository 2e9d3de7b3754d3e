package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/rs/zerolog"

	"github.com/Skufu/medicheck/internal/httpclient"
)

const (
	DefaultGitHubTimeout = 15 * time.Second
	userAgent            = "MediCheck-App/1.0"
)

// githubLogin matches GitHub's username rules: alphanumerics and single
// hyphens, no leading or trailing hyphen, at most 39 characters.
var githubLogin = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9])*$`)

// ValidLogin reports whether identity can name a GitHub account.
func ValidLogin(identity string) bool {
	return len(identity) <= 39 && githubLogin.MatchString(identity)
}

type GitHubConfig struct {
	BaseURL string
	// Token is optional and raises the API quota.
	Token   string
	Owner   string
	Repo    string
	Timeout time.Duration
	Client  *http.Client
}

// GitHubProvider implements Provider against the GitHub REST API.
type GitHubProvider struct {
	gh    *github.Client
	owner string
	repo  string
	log   zerolog.Logger
}

func NewGitHubProvider(cfg GitHubConfig, logger zerolog.Logger) (*GitHubProvider, error) {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultGitHubTimeout
		}
		client = httpclient.New(httpclient.WithTimeout(timeout))
	}

	gh := github.NewClient(client)
	if token := strings.TrimSpace(cfg.Token); token != "" {
		gh = gh.WithAuthToken(token)
	}
	gh.UserAgent = userAgent

	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		gh.BaseURL = u
	}

	return &GitHubProvider{
		gh:    gh,
		owner: cfg.Owner,
		repo:  cfg.Repo,
		log:   logger.With().Str("component", "github").Logger(),
	}, nil
}

// LookupUser calls GET /users/{id}.
func (p *GitHubProvider) LookupUser(ctx context.Context, identity string) (Outcome, error) {
	if !ValidLogin(identity) {
		return OutcomeNotFound, nil
	}
	_, resp, err := p.gh.Users.Get(ctx, identity)
	return p.outcome("users", resp, err, http.StatusOK)
}

// CheckStar calls GET /users/{id}/starred/{owner}/{repo}; GitHub answers
// 204 when starred and 404 when not.
func (p *GitHubProvider) CheckStar(ctx context.Context, identity string) (Outcome, error) {
	if !ValidLogin(identity) {
		return OutcomeNotFound, nil
	}
	path := fmt.Sprintf("users/%s/starred/%s/%s",
		identity, url.PathEscape(p.owner), url.PathEscape(p.repo))
	req, err := p.gh.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return OutcomeUnavailable, fmt.Errorf("build github request: %w", err)
	}
	resp, err := p.gh.Do(ctx, req, nil)
	return p.outcome("starred", resp, err, http.StatusNoContent)
}

func (p *GitHubProvider) outcome(call string, resp *github.Response, err error, confirmed int) (Outcome, error) {
	status := 0
	if resp != nil {
		status = resp.StatusCode
		p.log.Debug().
			Str("call", call).
			Int("status", status).
			Int("rate_remaining", resp.Rate.Remaining).
			Msg("github response")
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return OutcomeRateLimited, nil
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return outcomeForStatus(respErr.Response.StatusCode), nil
	}
	if err != nil {
		return OutcomeUnavailable, fmt.Errorf("github %s: %w", call, err)
	}
	if status == confirmed {
		return OutcomeConfirmed, nil
	}
	return outcomeForStatus(status), nil
}

func outcomeForStatus(status int) Outcome {
	switch status {
	case http.StatusNotFound:
		return OutcomeNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		return OutcomeRateLimited
	default:
		return OutcomeUnavailable
	}
}
