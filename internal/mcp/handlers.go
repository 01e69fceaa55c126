package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultJournalLimit = 20

// registerTools registers the netlogo tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "netlogo_load_model",
		Description: "Load a NetLogo model file into the workspace, replacing the current one",
	}, s.handleLoadModel)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "netlogo_command",
		Description: "Run a NetLogo command in the workspace",
	}, s.handleCommand)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "netlogo_report",
		Description: "Evaluate a NetLogo reporter and return its value",
	}, s.handleReport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "netlogo_kill_workspace",
		Description: "Discard the workspace's model; the engine keeps running",
	}, s.handleKillWorkspace)

	if s.journal != nil {
		sdk.AddTool(s.server, &sdk.Tool{
			Name:        "netlogo_journal",
			Description: "List recent engine operations with their results and errors",
		}, s.handleJournal)
	}
}

func (s *Server) handleLoadModel(ctx context.Context, req *sdk.CallToolRequest, args LoadModelInput) (*sdk.CallToolResult, StatusOutput, error) {
	if args.Path == "" {
		return nil, StatusOutput{}, fmt.Errorf("path is required")
	}
	// the engine resolves relative paths against its own install directory
	path, err := filepath.Abs(args.Path)
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("invalid model path: %w", err)
	}
	if err := s.sim.LoadModel(ctx, path); err != nil {
		s.logger.Debug("load model failed", "path", path, "error", err)
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true, Message: "loaded " + path}, nil
}

func (s *Server) handleCommand(ctx context.Context, req *sdk.CallToolRequest, args CommandInput) (*sdk.CallToolResult, StatusOutput, error) {
	if args.Command == "" {
		return nil, StatusOutput{}, fmt.Errorf("command is required")
	}
	if err := s.sim.Command(ctx, args.Command); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true, Message: "ok"}, nil
}

func (s *Server) handleReport(ctx context.Context, req *sdk.CallToolRequest, args ReportInput) (*sdk.CallToolResult, ReportOutput, error) {
	if args.Reporter == "" {
		return nil, ReportOutput{}, fmt.Errorf("reporter is required")
	}
	v, err := s.sim.Query(ctx, args.Reporter)
	if err != nil {
		return nil, ReportOutput{}, err
	}
	return nil, ReportOutput{
		Kind:  v.Kind().String(),
		Value: v.Interface(),
		Text:  v.String(),
	}, nil
}

func (s *Server) handleKillWorkspace(ctx context.Context, req *sdk.CallToolRequest, args KillWorkspaceInput) (*sdk.CallToolResult, StatusOutput, error) {
	if err := s.sim.Release(ctx); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true, Message: "workspace cleared"}, nil
}

func (s *Server) handleJournal(ctx context.Context, req *sdk.CallToolRequest, args JournalInput) (*sdk.CallToolResult, JournalOutput, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	entries, err := s.journal.Recent(ctx, s.session, limit)
	if err != nil {
		return nil, JournalOutput{}, err
	}

	items := make([]JournalItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, JournalItem{
			Op:         e.Op,
			Input:      e.Input,
			Result:     e.Result,
			Error:      e.Error,
			ErrorClass: e.ErrorClass,
			StartedAt:  e.StartedAt,
			DurationMs: float64(e.Duration) / float64(time.Millisecond),
		})
	}
	return nil, JournalOutput{Entries: items, Count: len(items)}, nil
}
