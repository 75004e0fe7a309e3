// SPDX-License-Identifier: MPL-2.0

package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// DefaultBaseURL is the public GitHub API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout bounds every API request made by a client built without
	// a custom HTTP client.
	DefaultTimeout = 10 * time.Second

	// defaultPerPage is the number of releases fetched per API page.
	defaultPerPage = 30

	// maxPages is the upper bound on pagination to avoid runaway requests.
	maxPages = 3

	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

var (
	// ErrAuthInvalid is returned when GitHub rejects the configured token.
	ErrAuthInvalid = errors.New("github token rejected")

	// ErrRateLimited is wrapped by every RateLimitError.
	ErrRateLimited = errors.New("github rate limit reached")
)

type (
	// RateLimitError is returned when the GitHub API rate limit is exceeded.
	RateLimitError struct {
		Limit     int
		Remaining int
		ResetAt   time.Time
	}

	// StatusError reports a response status the client has no meaning for.
	StatusError struct {
		Op         string
		StatusCode int
	}

	// Release is a published GitHub release.
	Release struct {
		TagName     string // Release tag, e.g. "2.6.1"
		Name        string // Human-readable release name
		Prerelease  bool   // True for alpha/beta/RC releases
		Draft       bool   // True for unpublished drafts
		HTMLURL     string // Browser URL for the release page
		PublishedAt string // ISO 8601 timestamp
	}

	// githubRelease is the JSON wire format for a GitHub Release API response.
	githubRelease struct {
		TagName     string `json:"tag_name"`
		Name        string `json:"name"`
		Prerelease  bool   `json:"prerelease"`
		Draft       bool   `json:"draft"`
		HTMLURL     string `json:"html_url"`
		PublishedAt string `json:"published_at"`
	}

	// GitHubClient queries the GitHub Releases API of the TGMPA repository.
	GitHubClient struct {
		httpClient *http.Client
		owner      string // Repository owner (default: "TGMPA")
		repo       string // Repository name (default: "TGM-Plugin-Activation")
		baseURL    string // API base URL (default: "https://api.github.com", overridable for tests)
		token      string // Optional token for authenticated requests
		userAgent  string // User-Agent header value
	}

	// ClientOption configures a GitHubClient during construction.
	ClientOption func(*GitHubClient)
)

// Error formats the rate limit details as a human-readable message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (%d/%d remaining, resets at %s)",
		e.Remaining, e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Unwrap lets callers match any RateLimitError with errors.Is(err, ErrRateLimited).
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// WithTimeout replaces the HTTP client with one bounded by d. A non-positive
// duration keeps the current client.
func WithTimeout(d time.Duration) ClientOption {
	return func(g *GitHubClient) {
		if d > 0 {
			g.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithBaseURL overrides the GitHub API base URL, primarily for test servers
// and GitHub Enterprise installations.
func WithBaseURL(base string) ClientOption {
	return func(g *GitHubClient) {
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sets a GitHub personal access token for authenticated requests.
// Authenticated requests have a higher rate limit (5000/hour vs 60/hour).
func WithToken(token string) ClientOption {
	return func(g *GitHubClient) {
		g.token = strings.TrimSpace(token)
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *GitHubClient) {
		g.userAgent = ua
	}
}

// NewGitHubClient creates a GitHubClient with sensible defaults.
// Defaults: owner="TGMPA", repo="TGM-Plugin-Activation",
// baseURL="https://api.github.com", userAgent="tgmpalint/dev" and an HTTP
// client with a DefaultTimeout deadline.
func NewGitHubClient(opts ...ClientOption) *GitHubClient {
	c := &GitHubClient{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		owner:      "TGMPA",
		repo:       "TGM-Plugin-Activation",
		baseURL:    DefaultBaseURL,
		userAgent:  "tgmpalint/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasToken reports whether requests are authenticated.
func (c *GitHubClient) HasToken() bool {
	return c.token != ""
}

// LatestRelease fetches the release GitHub marks as latest. A rejected token
// yields ErrAuthInvalid and an exhausted quota a *RateLimitError; any other
// non-200 response is a *StatusError.
func (c *GitHubClient) LatestRelease(ctx context.Context) (*Release, error) {
	const op = "getting latest release"
	latestURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	resp, err := c.doRequest(ctx, http.MethodGet, latestURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := c.checkStatus(op, resp); err != nil {
		return nil, err
	}

	var gr githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&gr); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", op, err)
	}

	r := Release(gr)
	return &r, nil
}

// ListReleases fetches stable (non-draft, non-prerelease) releases, sorted by
// version in descending order. Pagination is followed up to maxPages.
func (c *GitHubClient) ListReleases(ctx context.Context) ([]Release, error) {
	const op = "listing releases"
	pageURL := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d",
		c.baseURL, c.owner, c.repo, defaultPerPage)

	var all []Release

	for page := 0; page < maxPages && pageURL != ""; page++ {
		resp, reqErr := c.doRequest(ctx, http.MethodGet, pageURL)
		if reqErr != nil {
			return nil, fmt.Errorf("%s: %w", op, reqErr)
		}

		if statusErr := c.checkStatus(op, resp); statusErr != nil {
			resp.Body.Close()
			return nil, statusErr
		}

		var raw []githubRelease
		parseErr := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&raw)
		resp.Body.Close()
		if parseErr != nil {
			return nil, fmt.Errorf("%s: decoding releases: %w", op, parseErr)
		}

		for _, gr := range raw {
			if !gr.Draft && !gr.Prerelease {
				all = append(all, Release(gr))
			}
		}

		pageURL = parseLinkHeader(resp.Header.Get("Link"))
	}

	sortReleasesDesc(all)

	return all, nil
}

// doRequest creates and executes an HTTP request with common GitHub API headers.
func (c *GitHubClient) doRequest(ctx context.Context, method, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// checkStatus maps a non-200 response to an error.
func (c *GitHubClient) checkStatus(op string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		if c.token != "" {
			return fmt.Errorf("%s: %w", op, ErrAuthInvalid)
		}
	case http.StatusForbidden, http.StatusTooManyRequests:
		if err := checkRateLimit(resp); err != nil {
			return err
		}
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode}
}

// checkRateLimit inspects the X-RateLimit-* response headers and returns a
// RateLimitError when the remaining quota is zero.
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	rem, err := strconv.Atoi(remaining)
	if err != nil {
		return nil //nolint:nilerr // Non-numeric header is non-fatal.
	}
	if rem > 0 {
		return nil
	}

	// Malformed or missing companion headers default to zero.
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // Best-effort header parsing.
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // Best-effort header parsing.

	return &RateLimitError{
		Limit:     limit,
		Remaining: 0,
		ResetAt:   time.Unix(resetUnix, 0),
	}
}

// parseLinkHeader extracts the URL for the "next" page from a GitHub API Link header.
// Returns an empty string if no next page exists.
//
// Example header: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkHeader(header string) string {
	if header == "" {
		return ""
	}

	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}

		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}

	return ""
}

// NormalizeTag strips a leading "v" from a release tag and reports whether
// the remainder is a valid stable version number.
func NormalizeTag(tag string) (string, bool) {
	v := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if v == "" {
		return "", false
	}
	sv := "v" + v
	if !semver.IsValid(sv) || semver.Prerelease(sv) != "" || semver.Build(sv) != "" {
		return "", false
	}
	return v, true
}

// sortReleasesDesc sorts releases by version in descending order. Releases
// with invalid tags are placed at the end.
func sortReleasesDesc(releases []Release) {
	key := func(r Release) string {
		v, _ := NormalizeTag(r.TagName)
		if v == "" {
			return ""
		}
		return "v" + v
	}
	slices.SortStableFunc(releases, func(a, b Release) int {
		return semver.Compare(key(b), key(a))
	})
}
