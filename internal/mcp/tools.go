package mcp

import (
	"fmt"

	"burndown-mcp/internal/burndown"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolListBoards        = "list_boards"
	ToolGetSprintBurndown = "get_sprint_burndown"
)

// ListBoardsInput takes no arguments.
type ListBoardsInput struct{}

// BurndownInput are the arguments of get_sprint_burndown.
type BurndownInput struct {
	BoardIDs     []int  `json:"board_ids,omitempty" jsonschema:"Agile board ids whose operative sprints are combined. Defaults to the configured boards."`
	Mode         string `json:"mode,omitempty" jsonschema:"Which estimate drives remaining work: original or remaining."`
	IncludeChart *bool  `json:"include_chart,omitempty" jsonschema:"Append a Mermaid burndown chart to the result."`
	Offline      bool   `json:"offline,omitempty" jsonschema:"Serve the last stored snapshot without contacting Jira."`
}

func (s *Server) registerTools() error {
	listSchema, err := jsonschema.For[ListBoardsInput](nil)
	if err != nil {
		return fmt.Errorf("failed to build %s schema: %w", ToolListBoards, err)
	}
	burndownSchema, err := burndownInputSchema()
	if err != nil {
		return err
	}

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolListBoards,
		Description: "List the Jira agile boards visible to the configured account, with their ids.",
		InputSchema: listSchema,
	}, s.handleListBoards)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name: ToolGetSprintBurndown,
		Description: "Build the burndown of the operative sprint (active, else next, else last closed) of one or more boards. " +
			"Returns daily remaining work, the ideal line, time spent, completed issues and per-day changes, all in seconds. " +
			"Send a progress token to receive status notifications while boards and work-logs are fetched.",
		InputSchema: burndownSchema,
	}, s.handleGetSprintBurndown)
	return nil
}

func burndownInputSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[BurndownInput](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s schema: %w", ToolGetSprintBurndown, err)
	}
	if mode, ok := schema.Properties["mode"]; ok {
		mode.Enum = []any{string(burndown.ModeOriginal), string(burndown.ModeRemaining)}
	}
	if boards, ok := schema.Properties["board_ids"]; ok && boards.Items != nil {
		minimum := 1.0
		boards.Items.Minimum = &minimum
	}
	return schema, nil
}
