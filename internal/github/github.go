// Package github fetches repository metadata for `cppx info`.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://api.github.com"

var ErrNotFound = errors.New("GH_NOT_FOUND: repository not found")

// Repo is the subset of repository metadata cppx reports.
type Repo struct {
	Name        string
	Description string
	Stars       int64
	Forks       int64
	OpenIssues  int64
	LastPush    string
	URL         string
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Attempts bounds retries on 429 and 5xx responses.
	Attempts int
	Backoff  time.Duration
}

// New returns a client for $CPPX_GITHUB_API, or the public API.
func New(hc *http.Client) *Client {
	base := strings.TrimSpace(os.Getenv("CPPX_GITHUB_API"))
	if base == "" {
		base = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{BaseURL: base, HTTP: hc, Attempts: 3, Backoff: 500 * time.Millisecond}
}

// RepoInfo fetches owner/repo.
func (c *Client) RepoInfo(ctx context.Context, owner, repo string) (Repo, error) {
	if owner == "" || repo == "" {
		return Repo{}, fmt.Errorf("GH_REQUEST: owner and repo are required")
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
	status, body, err := c.get(ctx, endpoint)
	if err != nil {
		return Repo{}, err
	}
	if status == http.StatusNotFound || gjson.GetBytes(body, "message").String() == "Not Found" {
		return Repo{}, fmt.Errorf("%w: %s/%s", ErrNotFound, owner, repo)
	}
	if status != http.StatusOK {
		msg := gjson.GetBytes(body, "message").String()
		return Repo{}, fmt.Errorf("GH_HTTP: status %d: %s", status, msg)
	}
	if !gjson.ValidBytes(body) {
		return Repo{}, fmt.Errorf("GH_DECODE: response is not JSON")
	}
	r := gjson.ParseBytes(body)
	pushed := r.Get("pushed_at").String()
	if len(pushed) > 10 {
		pushed = pushed[:10]
	}
	return Repo{
		Name:        r.Get("name").String(),
		Description: r.Get("description").String(),
		Stars:       r.Get("stargazers_count").Int(),
		Forks:       r.Get("forks_count").Int(),
		OpenIssues:  r.Get("open_issues_count").Int(),
		LastPush:    pushed,
		URL:         r.Get("html_url").String(),
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL string) (int, []byte, error) {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("User-Agent", "cppx")
		if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			if werr := c.wait(ctx, c.backoff(i)); werr != nil {
				return 0, nil, werr
			}
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return 0, nil, readErr
		}
		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && i < attempts-1 {
			if werr := c.wait(ctx, c.retryAfter(resp.Header.Get("Retry-After"), i)); werr != nil {
				return 0, nil, werr
			}
			continue
		}
		return resp.StatusCode, body, nil
	}
	if lastErr != nil {
		return 0, nil, fmt.Errorf("GH_HTTP: %w", lastErr)
	}
	return 0, nil, errors.New("GH_HTTP: request failed")
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * c.Backoff
}

func (c *Client) retryAfter(value string, attempt int) time.Duration {
	secs, err := strconv.Atoi(value)
	if value == "" || err != nil || secs < 0 {
		return c.backoff(attempt)
	}
	if secs > 10 {
		secs = 10
	}
	return time.Duration(secs) * time.Second
}

// ParseRepoURL accepts "owner/repo" or a github.com URL.
func ParseRepoURL(s string) (owner, repo string, ok bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	s = strings.TrimSuffix(s, ".git")
	for _, p := range []string{"https://github.com/", "http://github.com/", "git@github.com:", "github.com/"} {
		s = strings.TrimPrefix(s, p)
	}
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
