// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Resolution outcomes reported by Result.Outcome.
const (
	OutcomeAPI         Outcome = "api"
	OutcomeFallback    Outcome = "fallback"
	OutcomeAuthInvalid Outcome = "auth_invalid"
	OutcomeRateLimited Outcome = "rate_limited"
)

// FallbackVersion is the latest TGMPA version known at build time. It is used
// whenever the API cannot provide one and may be overridden with
// -ldflags "-X github.com/themecheck/tgmpalint/internal/release.FallbackVersion=...".
var FallbackVersion = "2.6.1"

type (
	// Outcome describes how a Result was obtained.
	Outcome string

	// Result is the outcome of resolving the latest stable version.
	// Latest is always usable. Err is nil, ErrAuthInvalid or a
	// *RateLimitError; every other failure falls back silently.
	Result struct {
		Latest  string
		Outcome Outcome
		Err     error
	}

	// LatestFetcher fetches the most recent release.
	LatestFetcher interface {
		LatestRelease(ctx context.Context) (*Release, error)
	}

	// Resolver resolves the latest stable version at most once.
	Resolver struct {
		fetcher  LatestFetcher
		fallback string
		logger   *log.Logger
		onDone   func(Result)

		once   sync.Once
		result Result
	}

	// ResolverOption configures a Resolver during construction.
	ResolverOption func(*Resolver)
)

// WithFallback overrides the version used when the API gives no answer.
func WithFallback(v string) ResolverOption {
	return func(r *Resolver) {
		if v != "" {
			r.fallback = v
		}
	}
}

// WithLogger sets the logger for resolution diagnostics.
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOnResolved registers fn to receive the Result of the single API query.
// Cached answers do not call it again.
func WithOnResolved(fn func(Result)) ResolverOption {
	return func(r *Resolver) {
		r.onDone = fn
	}
}

// NewResolver creates a Resolver backed by fetcher.
func NewResolver(fetcher LatestFetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		fallback: FallbackVersion,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve queries the API on the first call and returns the cached Result on
// every later call without network I/O. It never fails: the Result always
// carries a usable version.
func (r *Resolver) Resolve(ctx context.Context) Result {
	r.once.Do(func() {
		r.result = r.resolve(ctx)
		r.logger.Debug("resolved latest TGMPA version",
			"version", r.result.Latest, "outcome", r.result.Outcome)
		if r.onDone != nil {
			r.onDone(r.result)
		}
	})
	return r.result
}

func (r *Resolver) resolve(ctx context.Context) Result {
	rel, err := r.fetcher.LatestRelease(ctx)
	if err != nil {
		var rlErr *RateLimitError
		switch {
		case errors.Is(err, ErrAuthInvalid):
			r.logger.Warn("GitHub token rejected, using fallback version", "fallback", r.fallback)
			return Result{Latest: r.fallback, Outcome: OutcomeAuthInvalid, Err: ErrAuthInvalid}
		case errors.As(err, &rlErr):
			r.logger.Warn("GitHub rate limit reached, using fallback version",
				"fallback", r.fallback, "reset", rlErr.ResetAt)
			return Result{Latest: r.fallback, Outcome: OutcomeRateLimited, Err: rlErr}
		default:
			r.logger.Debug("latest release unavailable, using fallback version", "err", err)
			return r.fallbackResult()
		}
	}

	if rel.Prerelease {
		r.logger.Debug("latest release is a prerelease, ignoring", "tag", rel.TagName)
		return r.fallbackResult()
	}
	v, ok := NormalizeTag(rel.TagName)
	if !ok {
		r.logger.Debug("latest release tag is not a version, ignoring", "tag", rel.TagName)
		return r.fallbackResult()
	}
	return Result{Latest: v, Outcome: OutcomeAPI}
}

func (r *Resolver) fallbackResult() Result {
	return Result{Latest: r.fallback, Outcome: OutcomeFallback}
}
