package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return NewRESTClient(cfg)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAuthenticationPriority(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		check func(t *testing.T, r *http.Request)
	}{
		{
			name: "personal access token",
			cfg:  Config{Token: "pat", Email: "a@b.c", APIToken: "tok", SessionID: "s"},
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer pat", r.Header.Get("Authorization"))
				assert.Empty(t, r.Header.Get("Cookie"))
			},
		},
		{
			name: "cloud basic auth",
			cfg:  Config{Email: "a@b.c", APIToken: "tok", SessionID: "s"},
			check: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "a@b.c", user)
				assert.Equal(t, "tok", pass)
			},
		},
		{
			name: "session cookies",
			cfg:  Config{XsrfToken: "x", SessionID: "s", GCLB: `"lb"`},
			check: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
				assert.Equal(t, `atlassian.xsrf.token=x; JSESSIONID=s; GCLB="lb"`, r.Header.Get("Cookie"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.cfg, func(w http.ResponseWriter, r *http.Request) {
				tt.check(t, r)
				writeJSON(t, w, SprintDTO{ID: 7, Name: "Sprint 7", State: "active"})
			})
			sprint, err := client.GetSprint(context.Background(), 7)
			require.NoError(t, err)
			assert.Equal(t, "Sprint 7", sprint.Name)
		})
	}
}

func TestSearchSprintIssuesPaginatesAndCompletesChangelogs(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/2/search":
			assert.Equal(t, "sprint = 42", r.URL.Query().Get("jql"))
			assert.Equal(t, "changelog", r.URL.Query().Get("expand"))
			startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
			resp := SearchResponse{Total: 2}
			if startAt == 0 {
				issue := IssueDTO{Key: "ABC-1"}
				issue.Changelog = &ChangelogDTO{Total: 2, Histories: []HistoryDTO{{Created: "2025-01-02T10:00:00.000+0000"}}}
				resp.Issues = []IssueDTO{issue}
			} else {
				resp.Issues = []IssueDTO{{Key: "ABC-2", Changelog: &ChangelogDTO{}}}
			}
			writeJSON(t, w, resp)
		case "/rest/api/2/issue/ABC-1/changelog":
			writeJSON(t, w, ChangelogPage{Total: 2, IsLast: true, Values: []HistoryDTO{
				{Created: "2025-01-02T10:00:00.000+0000"},
				{Created: "2025-01-03T10:00:00.000+0000"},
			}})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	issues, err := client.SearchSprintIssues(context.Background(), 42, true)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "ABC-1", issues[0].Key)
	assert.Len(t, issues[0].Changelog.Histories, 2)
	assert.False(t, issues[0].Changelog.Truncated())
	assert.Equal(t, "ABC-2", issues[1].Key)
}

func TestSearchSprintIssuesFallsBackToAgileEndpoint(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/2/search":
			w.WriteHeader(http.StatusBadRequest)
		case "/rest/agile/1.0/sprint/42/issue":
			assert.Empty(t, r.URL.Query().Get("jql"))
			writeJSON(t, w, SearchResponse{Total: 1, Issues: []IssueDTO{{Key: "ABC-9"}}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	issues, err := client.SearchSprintIssues(context.Background(), 42, false)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "ABC-9", issues[0].Key)
}

func TestPermanentErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, Config{MaxRetries: 3}, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetSprint(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestServerErrorsAreRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, Config{MaxRetries: 3}, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, SprintDTO{ID: 1, Name: "ok"})
	})

	sprint, err := client.GetSprint(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", sprint.Name)
	assert.Equal(t, int32(2), hits.Load())
}

func TestAuthErrorIsTyped(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := client.GetBoards(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestGetBoardsIsCached(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		startAt := r.URL.Query().Get("startAt")
		if startAt == "0" {
			writeJSON(t, w, BoardPage{Values: []BoardDTO{{ID: 1, Name: "Team A"}}})
			return
		}
		writeJSON(t, w, BoardPage{IsLast: true, Values: []BoardDTO{{ID: 2, Name: "Team B"}}})
	})

	boards, err := client.GetBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 2)

	again, err := client.GetBoards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, boards, again)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetIssueWorklogsPaginates(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/ABC-1/worklog", r.URL.Path)
		if r.URL.Query().Get("startAt") == "0" {
			writeJSON(t, w, WorklogPage{Total: 2, Worklogs: []WorklogDTO{{ID: "1", TimeSpentSeconds: 60}}})
			return
		}
		writeJSON(t, w, WorklogPage{Total: 2, Worklogs: []WorklogDTO{{ID: "2", TimeSpentSeconds: 120}}})
	})

	worklogs, err := client.GetIssueWorklogs(context.Background(), "ABC-1")
	require.NoError(t, err)
	require.Len(t, worklogs, 2)
	assert.Equal(t, "2", worklogs[1].ID)
}

func TestThrottleHonoursContext(t *testing.T) {
	c := NewRESTClient(Config{RequestDelay: time.Hour}).(*restClient)
	c.lastRequest = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.throttle(ctx), context.Canceled)
}
