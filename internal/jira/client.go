package jira

import (
	"context"
	"time"
)

// Client is the interface for interacting with Jira.
type Client interface {
	GetBoards(ctx context.Context) ([]BoardDTO, error)
	GetSprints(ctx context.Context, boardID int) ([]SprintDTO, error)
	GetSprint(ctx context.Context, sprintID int) (*SprintDTO, error)
	// SearchSprintIssues returns every issue of the sprint, with complete changelogs when
	// withChangelog is set.
	SearchSprintIssues(ctx context.Context, sprintID int, withChangelog bool) ([]IssueDTO, error)
	GetIssueChangelog(ctx context.Context, issueKey string) ([]HistoryDTO, error)
	GetIssueWorklogs(ctx context.Context, issueKey string) ([]WorklogDTO, error)
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Data Center Personal Access Token
	Token string

	// Cloud basic auth
	Email    string
	APIToken string

	// Data Center Cookies
	XsrfToken  string
	SessionID  string
	RememberMe string

	// Load Balancer Cookies
	GCILB string
	GCLB  string

	// Performance Settings
	RequestDelay      time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	WorklogBatchSize  int
	WorklogBatchPause time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewRESTClient(cfg)
}
