package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog/log"
)

const (
	issueFields   = "summary,status,assignee,parent,timetracking,created,updated,resolutiondate,sprint"
	searchPage    = 100
	agilePage     = 50
	metadataTTL   = 5 * time.Minute
	clientTimeout = 90 * time.Second
)

type restClient struct {
	cfg        Config
	httpClient *http.Client
	retryCfg   retry.Config

	throttleMu  sync.Mutex
	lastRequest time.Time

	cache *ttlCache
}

// NewRESTClient creates a client for the Jira REST and agile APIs. It works against both Cloud
// (email + API token) and Data Center (PAT or session cookies).
func NewRESTClient(cfg Config) Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &restClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
		retryCfg: retry.Config{
			MaxAttempts:   cfg.MaxRetries,
			InitialDelay:  cfg.RetryDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
		cache: newTTLCache(),
	}
}

// throttle enforces RequestDelay between consecutive search-class requests.
func (c *restClient) throttle(ctx context.Context) error {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	if wait := c.cfg.RequestDelay - time.Since(c.lastRequest); wait > 0 {
		log.Debug().Dur("wait", wait).Msg("Throttling Jira request")
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (c *restClient) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		return
	}

	// 2. Cloud basic auth
	if c.cfg.Email != "" && c.cfg.APIToken != "" {
		req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
		return
	}

	// 3. Fallback to session cookies
	cookies := []struct {
		name  string
		value string
	}{
		{"atlassian.xsrf.token", c.cfg.XsrfToken},
		{"JSESSIONID", c.cfg.SessionID},
		{"seraph.rememberme.cookie", c.cfg.RememberMe},
		{"GCILB", c.cfg.GCILB},
		{"GCLB", c.cfg.GCLB},
	}

	var cookiePairs []string
	for _, cookie := range cookies {
		if cookie.value != "" {
			// Built by hand: net/http's RFC 6265 validation drops GCLB values containing quotes.
			cookiePairs = append(cookiePairs, cookie.name+"="+cookie.value)
		}
	}
	if len(cookiePairs) > 0 {
		req.Header.Set("Cookie", strings.Join(cookiePairs, "; "))
	}
}

// get performs a GET with retries and decodes the JSON body into out. Only rate limiting and
// server errors are retried.
func (c *restClient) get(ctx context.Context, endpoint string, params url.Values, throttled bool, out any) error {
	target := strings.TrimRight(c.cfg.BaseURL, "/") + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var permanent error
	r := retry.New[[]byte](c.retryCfg)
	body, err := r.Do(ctx, func(ctx context.Context) ([]byte, error) {
		if throttled {
			if err := c.throttle(ctx); err != nil {
				permanent = err
				return nil, nil
			}
		}
		b, err := c.fetch(ctx, endpoint, target)
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			permanent = err
			return nil, nil
		}
		if err != nil {
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("Jira request failed")
		}
		return b, err
	})
	if permanent != nil {
		return permanent
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode Jira response for %s: %w", endpoint, err)
	}
	return nil
}

func (c *restClient) fetch(ctx context.Context, endpoint, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.authenticateRequest(req)

	log.Debug().Str("url", target).Msg("Jira request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}
	return io.ReadAll(resp.Body)
}

func (c *restClient) GetBoards(ctx context.Context) ([]BoardDTO, error) {
	const cacheKey = "boards"
	if val, ok := c.cache.get(cacheKey); ok {
		return val.([]BoardDTO), nil
	}

	var boards []BoardDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(agilePage))

		var page BoardPage
		if err := c.get(ctx, "/rest/agile/1.0/board", params, false, &page); err != nil {
			return nil, fmt.Errorf("list boards: %w", err)
		}
		boards = append(boards, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}

	c.cache.put(cacheKey, boards, metadataTTL)
	return boards, nil
}

func (c *restClient) GetSprints(ctx context.Context, boardID int) ([]SprintDTO, error) {
	cacheKey := fmt.Sprintf("sprints:%d", boardID)
	if val, ok := c.cache.get(cacheKey); ok {
		return val.([]SprintDTO), nil
	}

	endpoint := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	var sprints []SprintDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(agilePage))

		var page SprintPage
		if err := c.get(ctx, endpoint, params, false, &page); err != nil {
			return nil, fmt.Errorf("list sprints of board %d: %w", boardID, err)
		}
		sprints = append(sprints, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}

	log.Debug().Int("board", boardID).Int("sprints", len(sprints)).Msg("Fetched sprints")
	c.cache.put(cacheKey, sprints, metadataTTL)
	return sprints, nil
}

func (c *restClient) GetSprint(ctx context.Context, sprintID int) (*SprintDTO, error) {
	cacheKey := fmt.Sprintf("sprint:%d", sprintID)
	if val, ok := c.cache.get(cacheKey); ok {
		return val.(*SprintDTO), nil
	}

	var sprint SprintDTO
	if err := c.get(ctx, fmt.Sprintf("/rest/agile/1.0/sprint/%d", sprintID), nil, false, &sprint); err != nil {
		return nil, fmt.Errorf("get sprint %d: %w", sprintID, err)
	}
	c.cache.put(cacheKey, &sprint, metadataTTL)
	return &sprint, nil
}

func (c *restClient) SearchSprintIssues(ctx context.Context, sprintID int, withChangelog bool) ([]IssueDTO, error) {
	issues, err := c.searchIssues(ctx, "/rest/api/2/search", fmt.Sprintf("sprint = %d", sprintID), withChangelog)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.Warn().Err(err).Int("sprint", sprintID).Msg("JQL search failed, falling back to the agile sprint endpoint")
		issues, err = c.searchIssues(ctx, fmt.Sprintf("/rest/agile/1.0/sprint/%d/issue", sprintID), "", withChangelog)
		if err != nil {
			return nil, fmt.Errorf("fetch issues of sprint %d: %w", sprintID, err)
		}
	}
	log.Info().Int("sprint", sprintID).Int("issues", len(issues)).Bool("changelog", withChangelog).Msg("Fetched sprint issues")

	if !withChangelog {
		return issues, nil
	}
	for i := range issues {
		if !issues[i].Changelog.Truncated() {
			continue
		}
		histories, err := c.GetIssueChangelog(ctx, issues[i].Key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			log.Warn().Err(err).Str("issue", issues[i].Key).Msg("Could not complete truncated changelog")
			continue
		}
		issues[i].Changelog.Histories = histories
		issues[i].Changelog.Total = len(histories)
	}
	return issues, nil
}

func (c *restClient) searchIssues(ctx context.Context, endpoint, jql string, withChangelog bool) ([]IssueDTO, error) {
	var issues []IssueDTO
	for startAt := 0; ; {
		params := url.Values{}
		if jql != "" {
			params.Set("jql", jql)
		}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(searchPage))
		params.Set("fields", issueFields)
		if withChangelog {
			params.Set("expand", "changelog")
		}

		var page SearchResponse
		if err := c.get(ctx, endpoint, params, true, &page); err != nil {
			return nil, err
		}
		issues = append(issues, page.Issues...)
		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}
	return issues, nil
}

func (c *restClient) GetIssueChangelog(ctx context.Context, issueKey string) ([]HistoryDTO, error) {
	endpoint := "/rest/api/2/issue/" + url.PathEscape(issueKey) + "/changelog"
	var histories []HistoryDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(searchPage))

		var page ChangelogPage
		if err := c.get(ctx, endpoint, params, false, &page); err != nil {
			return nil, fmt.Errorf("changelog of %s: %w", issueKey, err)
		}
		histories = append(histories, page.Values...)
		startAt += len(page.Values)
		if page.IsLast || len(page.Values) == 0 || startAt >= page.Total {
			break
		}
	}
	return histories, nil
}

func (c *restClient) GetIssueWorklogs(ctx context.Context, issueKey string) ([]WorklogDTO, error) {
	endpoint := "/rest/api/2/issue/" + url.PathEscape(issueKey) + "/worklog"
	var worklogs []WorklogDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(searchPage))

		var page WorklogPage
		if err := c.get(ctx, endpoint, params, false, &page); err != nil {
			return nil, fmt.Errorf("worklogs of %s: %w", issueKey, err)
		}
		worklogs = append(worklogs, page.Worklogs...)
		startAt += len(page.Worklogs)
		if len(page.Worklogs) == 0 || startAt >= page.Total {
			break
		}
	}
	return worklogs, nil
}
