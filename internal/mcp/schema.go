// Package mcp exposes a NetLogo workspace as MCP (Model Context Protocol)
// tools so an agent can load models, run commands and read reporters.
package mcp

import "time"

// LoadModelInput defines the input for netlogo_load_model tool.
type LoadModelInput struct {
	Path string `json:"path" jsonschema:"Absolute path of the .nlogo model file"`
}

// CommandInput defines the input for netlogo_command tool.
type CommandInput struct {
	Command string `json:"command" jsonschema:"NetLogo command source, e.g. 'setup' or 'repeat 10 [ go ]'"`
}

// ReportInput defines the input for netlogo_report tool.
type ReportInput struct {
	Reporter string `json:"reporter" jsonschema:"NetLogo reporter source, e.g. 'count turtles'"`
}

// KillWorkspaceInput defines the input for netlogo_kill_workspace tool.
type KillWorkspaceInput struct{}

// StatusOutput is the output of tools that produce no value.
type StatusOutput struct {
	OK      bool   `json:"ok" jsonschema:"Whether the engine accepted the call"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}

// ReportOutput defines the output for netlogo_report tool.
type ReportOutput struct {
	Kind  string `json:"kind" jsonschema:"Result kind: bool, string, integer, double or a list of one of those"`
	Value any    `json:"value" jsonschema:"The reporter's value"`
	Text  string `json:"text" jsonschema:"The value as NetLogo would print it"`
}

// JournalInput defines the input for netlogo_journal tool.
type JournalInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of entries (default: 20)"`
}

// JournalOutput defines the output for netlogo_journal tool.
type JournalOutput struct {
	Entries []JournalItem `json:"entries" jsonschema:"Recent operations, newest first"`
	Count   int           `json:"count" jsonschema:"Number of entries"`
}

// JournalItem is one journaled operation.
type JournalItem struct {
	Op         string    `json:"op"`
	Input      string    `json:"input,omitempty"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorClass string    `json:"error_class,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
}
