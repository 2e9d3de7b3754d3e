// Package httpclient builds the outbound HTTP clients used for GitHub and
// model provider calls.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

type Config struct {
	// Timeout bounds the whole request including reading the body. A shorter
	// context deadline still wins.
	Timeout time.Duration

	DialTimeout     time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		DialTimeout:         5 * time.Second,
		TLSHandshake:        5 * time.Second,
		ResponseHeader:      20 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
	}
}

// WithTimeout returns DefaultConfig with the overall timeout replaced.
func WithTimeout(d time.Duration) Config {
	cfg := DefaultConfig()
	if d > 0 {
		cfg.Timeout = d
		if cfg.ResponseHeader > d {
			cfg.ResponseHeader = d
		}
	}
	return cfg
}

func New(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: tr,
	}
}
