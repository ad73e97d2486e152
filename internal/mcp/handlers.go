package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"burndown-mcp/internal/burndown"
	"burndown-mcp/internal/report"
	"burndown-mcp/internal/visuals"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ErrInvalidBoardID is reported for board ids that are not positive.
var ErrInvalidBoardID = errors.New("board ids must be positive integers")

// boardSummary is the list_boards view of a board.
type boardSummary struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	ProjectKey string `json:"projectKey,omitempty"`
}

func (s *Server) handleListBoards(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListBoardsInput) (*mcpsdk.CallToolResult, any, error) {
	boards, err := s.service.ListBoards(ctx)
	if err != nil {
		log.Error().Err(err).Str("tool", ToolListBoards).Msg("Tool call failed")
		return errorResult(err), nil, nil
	}

	out := make([]boardSummary, 0, len(boards))
	for _, b := range boards {
		summary := boardSummary{ID: b.ID, Name: b.Name, Type: b.Type}
		if b.Location != nil {
			summary.ProjectKey = b.Location.ProjectKey
		}
		out = append(out, summary)
	}
	return textResult(formatResult(out)), nil, nil
}

func (s *Server) handleGetSprintBurndown(ctx context.Context, call *mcpsdk.CallToolRequest, in BurndownInput) (*mcpsdk.CallToolResult, any, error) {
	req, err := toRequest(in)
	if err != nil {
		return errorResult(err), nil, nil
	}
	req.Progress = progressNotifier(ctx, call)

	rep, err := s.service.Build(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("tool", ToolGetSprintBurndown).Ints("boards", req.BoardIDs).Msg("Tool call failed")
		return errorResult(err), nil, nil
	}

	result := textResult(formatResult(rep))
	includeChart := s.charts
	if in.IncludeChart != nil {
		includeChart = *in.IncludeChart
	}
	if includeChart {
		if chart := visuals.BurndownMermaid(rep.Title(), rep.Timeline); chart != "" {
			result.Content = append(result.Content, &mcpsdk.TextContent{Text: chart})
		}
	}
	return result, nil, nil
}

// progressNotifier forwards report progress as MCP progress notifications when the caller sent a
// progress token. Progress counts the notifications sent so far; the total is unknown.
func progressNotifier(ctx context.Context, call *mcpsdk.CallToolRequest) report.ProgressFunc {
	if call == nil || call.Session == nil || call.Params == nil {
		return nil
	}
	token := call.Params.GetProgressToken()
	if token == nil {
		return nil
	}

	var (
		mu   sync.Mutex
		sent float64
	)
	return func(message string) {
		mu.Lock()
		defer mu.Unlock()
		sent++
		err := call.Session.NotifyProgress(ctx, &mcpsdk.ProgressNotificationParams{
			ProgressToken: token,
			Progress:      sent,
			Message:       message,
		})
		if err != nil {
			log.Debug().Err(err).Str("tool", ToolGetSprintBurndown).Msg("Failed to send progress notification")
		}
	}
}

func toRequest(in BurndownInput) (report.Request, error) {
	for _, id := range in.BoardIDs {
		if id <= 0 {
			return report.Request{}, fmt.Errorf("%w: %d", ErrInvalidBoardID, id)
		}
	}
	mode, err := burndown.ParseMode(in.Mode)
	if err != nil {
		return report.Request{}, err
	}
	// An omitted mode defers to the configured default.
	if in.Mode == "" {
		mode = ""
	}
	return report.Request{BoardIDs: in.BoardIDs, Mode: mode, Offline: in.Offline}, nil
}

func formatResult(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("failed to encode result: %v", err)
	}
	return string(out)
}

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}}
}

func errorResult(err error) *mcpsdk.CallToolResult {
	res := textResult("Error: " + err.Error())
	res.IsError = true
	return res
}
