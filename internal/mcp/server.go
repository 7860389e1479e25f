// Package mcp exposes the daemon's window registry to MCP clients over
// stdio, backed by the IPC socket of a running daemon.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winstated/internal/ipc"
)

const (
	ServerName    = "winstated"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for window-state queries.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates an MCP server talking to the daemon at socketPath
// (empty for the default runtime location).
func NewServer(socketPath string) (*Server, error) {
	client := ipc.NewClient(socketPath)
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("winstated daemon is not reachable: %w", err)
	}

	s := &Server{client: client}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Get daemon status: tracked window/application counts, dropped events, uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List all tracked windows with id, owning pid, application name and title. Optionally filter by pid.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_applications",
		Description: "List all tracked applications with pid, name and window count.",
	}, s.handleListApplications)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window",
		Description: "Look up one window by its numeric identifier.",
	}, s.handleGetWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "refresh_state",
		Description: "Force an immediate re-enumeration of all tracked applications' windows.",
	}, s.handleRefreshState)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		WindowCount:      status.WindowCount,
		ApplicationCount: status.ApplicationCount,
		EventsDropped:    status.EventsDropped,
		UptimeSeconds:    status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(data.Windows))}
	for _, w := range data.Windows {
		if args.PID != 0 && w.PID != args.PID {
			continue
		}
		out.Windows = append(out.Windows, WindowInfo{
			ID:    w.ID,
			PID:   w.PID,
			App:   w.App,
			Title: w.Title,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListApplications(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListApplicationsInput) (*mcpsdk.CallToolResult, ListApplicationsOutput, error) {
	data, err := s.client.ListApplications()
	if err != nil {
		return nil, ListApplicationsOutput{}, err
	}

	out := ListApplicationsOutput{Applications: make([]ApplicationInfo, 0, len(data.Applications))}
	for _, app := range data.Applications {
		out.Applications = append(out.Applications, ApplicationInfo{
			PID:         app.PID,
			Name:        app.Name,
			WindowCount: app.WindowCount,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args GetWindowInput) (*mcpsdk.CallToolResult, WindowInfo, error) {
	if args.ID == 0 {
		return nil, WindowInfo{}, fmt.Errorf("window id 0 is never valid")
	}
	info, err := s.client.GetWindow(args.ID)
	if err != nil {
		return nil, WindowInfo{}, err
	}
	return nil, WindowInfo{
		ID:    info.ID,
		PID:   info.PID,
		App:   info.App,
		Title: info.Title,
	}, nil
}

func (s *Server) handleRefreshState(_ context.Context, _ *mcpsdk.CallToolRequest, _ RefreshStateInput) (*mcpsdk.CallToolResult, RefreshStateOutput, error) {
	data, err := s.client.Refresh()
	if err != nil {
		return nil, RefreshStateOutput{}, err
	}
	return nil, RefreshStateOutput{WindowCount: data.WindowCount}, nil
}
