package mcp

import (
	"context"
	"fmt"

	"burndown-mcp/internal/report"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "burndown-mcp"

// Server exposes sprint burndown reports as MCP tools.
type Server struct {
	service *report.Service
	charts  bool
	inner   *mcpsdk.Server
}

// NewServer creates a new MCP server. charts sets whether burndown results carry a Mermaid chart
// unless the caller asks otherwise.
func NewServer(service *report.Service, charts bool, version string) (*Server, error) {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		service: service,
		charts:  charts,
		inner: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		}, &mcpsdk.ServerOptions{}),
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Serve runs the server over stdio until the context is canceled or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport runs the server over the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
