package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *Client {
	c := New(srv.Client())
	c.BaseURL = srv.URL
	c.Backoff = time.Millisecond
	return c
}

func TestRepoInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/fmtlib/fmt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"name": "fmt",
			"description": "A modern formatting library",
			"stargazers_count": 20000,
			"forks_count": 2500,
			"open_issues_count": 20,
			"pushed_at": "2024-05-01T10:00:00Z",
			"html_url": "https://github.com/fmtlib/fmt"
		}`))
	}))
	defer server.Close()

	repo, err := newTestClient(server).RepoInfo(context.Background(), "fmtlib", "fmt")
	if err != nil {
		t.Fatalf("RepoInfo: %v", err)
	}
	want := Repo{
		Name:        "fmt",
		Description: "A modern formatting library",
		Stars:       20000,
		Forks:       2500,
		OpenIssues:  20,
		LastPush:    "2024-05-01",
		URL:         "https://github.com/fmtlib/fmt",
	}
	if repo != want {
		t.Fatalf("got %+v, want %+v", repo, want)
	}
}

func TestRepoInfoNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).RepoInfo(context.Background(), "nobody", "nothing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoInfoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"name":"fmt"}`))
	}))
	defer server.Close()

	repo, err := newTestClient(server).RepoInfo(context.Background(), "fmtlib", "fmt")
	if err != nil {
		t.Fatalf("RepoInfo: %v", err)
	}
	if repo.Name != "fmt" || calls.Load() != 2 {
		t.Fatalf("expected retry then success, got %+v after %d calls", repo, calls.Load())
	}
}

func TestParseRepoURL(t *testing.T) {
	for in, want := range map[string][2]string{
		"fmtlib/fmt":                         {"fmtlib", "fmt"},
		"https://github.com/fmtlib/fmt":      {"fmtlib", "fmt"},
		"https://github.com/fmtlib/fmt.git/": {"fmtlib", "fmt"},
		"git@github.com:fmtlib/fmt.git":      {"fmtlib", "fmt"},
	} {
		owner, repo, ok := ParseRepoURL(in)
		if !ok || owner != want[0] || repo != want[1] {
			t.Errorf("ParseRepoURL(%q) = %q, %q, %v", in, owner, repo, ok)
		}
	}
	if _, _, ok := ParseRepoURL("fmt"); ok {
		t.Error("single segment should not parse")
	}
}
