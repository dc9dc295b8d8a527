// Package mcp provides an MCP (Model Context Protocol) server for
// capreport. This allows AI agents to run reports, evaluate sandboxed
// expressions, and inspect run history through MCP tools instead of
// CLI commands.
package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/expr"
	"github.com/hargabyte/capreport/internal/history"
	"github.com/hargabyte/capreport/internal/output"
	"github.com/hargabyte/capreport/internal/platform"
	"github.com/hargabyte/capreport/internal/report"
	"github.com/hargabyte/capreport/internal/units"
)

// Server wraps the MCP server with capreport-specific functionality.
type Server struct {
	mcpServer    *server.MCPServer
	cfg          *config.Config
	workDir      string
	connect      func(*config.Config) (platform.Connection, error)
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration.
type Config struct {
	WorkDir string        // Directory to resolve config and reports from (default ".")
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// DefaultTools is the default set of tools to expose.
var DefaultTools = []string{"report_run", "report_eval", "report_convert", "report_history"}

// AllTools lists all available tools.
var AllTools = []string{"report_run", "report_eval", "report_convert", "report_history"}

// New creates a new MCP server for capreport.
func New(cfg Config) (*Server, error) {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = "."
	}

	toolCfg, err := config.Load(workDir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"capreport",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		cfg:          toolCfg,
		workDir:      workDir,
		connect:      connectPlatform,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = DefaultTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// connectPlatform builds the authenticated platform connection from
// the tool configuration.
func connectPlatform(cfg *config.Config) (platform.Connection, error) {
	if cfg.Platform.Host == "" {
		return nil, fmt.Errorf("platform host is not configured: run 'capreport init' and edit %s", config.ConfigFileName)
	}

	return platform.NewClient(platform.ClientConfig{
		Host:       cfg.Platform.Host,
		Username:   cfg.Platform.Username,
		Password:   os.Getenv(cfg.Platform.PasswordEnv),
		Insecure:   cfg.Platform.Insecure,
		Timeout:    cfg.Platform.Timeout,
		MaxRetries: cfg.Platform.MaxRetries,
	})
}

// registerTool registers a single tool with the MCP server.
func (s *Server) registerTool(name string) error {
	switch name {
	case "report_run":
		return s.registerRunTool()
	case "report_eval":
		return s.registerEvalTool()
	case "report_convert":
		return s.registerConvertTool()
	case "report_history":
		return s.registerHistoryTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	// Start timeout checker if timeout is set
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded.
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "capreport serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp.
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the list of registered tools.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"report_run": {
		Name:        "report_run",
		Description: "Run a report definition file against the configured platform and return the rendered output.",
		Parameters: []ParameterSchema{
			{Name: "report", Type: "string", Description: "Path to the report definition YAML file", Required: true},
			{Name: "format", Type: "string", Description: "Output format: table, csv, json, yaml (default: configured default)"},
		},
	},
	"report_eval": {
		Name:        "report_eval",
		Description: "Evaluate a sandboxed computed-field expression and return the result.",
		Parameters: []ParameterSchema{
			{Name: "expression", Type: "string", Description: "Expression to evaluate", Required: true},
		},
	},
	"report_convert": {
		Name:        "report_convert",
		Description: "Convert a value between memory or CPU frequency units.",
		Parameters: []ParameterSchema{
			{Name: "value", Type: "number", Description: "Value to convert", Required: true},
			{Name: "kind", Type: "string", Description: "Unit family: mem or cpu (default: mem)"},
			{Name: "from", Type: "string", Description: "Source unit (default: KB for mem, MHZ for cpu)"},
			{Name: "to", Type: "string", Description: "Destination unit", Required: true},
			{Name: "precision", Type: "number", Description: "Decimal places to round to (default: no rounding)"},
		},
	},
	"report_history": {
		Name:        "report_history",
		Description: "List recent report runs recorded in the local history database.",
		Parameters: []ParameterSchema{
			{Name: "limit", Type: "number", Description: "Maximum runs to return (default: 10)"},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(s.tools))
	for name := range s.tools {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the result string or an error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	switch name {
	case "report_run":
		reportPath, _ := args["report"].(string)
		if reportPath == "" {
			return "", fmt.Errorf("report parameter is required")
		}
		format, _ := args["format"].(string)
		return s.executeRun(ctx, reportPath, format)

	case "report_eval":
		expression, _ := args["expression"].(string)
		if expression == "" {
			return "", fmt.Errorf("expression parameter is required")
		}
		return s.executeEval(expression)

	case "report_convert":
		value, ok := args["value"].(float64)
		if !ok {
			return "", fmt.Errorf("value parameter is required")
		}
		to, _ := args["to"].(string)
		if to == "" {
			return "", fmt.Errorf("to parameter is required")
		}
		kind, _ := args["kind"].(string)
		from, _ := args["from"].(string)
		precision := units.NoRounding
		if p, ok := args["precision"].(float64); ok {
			precision = int(p)
		}
		return s.executeConvert(value, kind, from, to, precision)

	case "report_history":
		limit := 10
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		return s.executeHistory(limit)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// registerRunTool registers the report_run tool.
func (s *Server) registerRunTool() error {
	tool := mcp.NewTool("report_run",
		mcp.WithDescription("Run a report definition file against the configured platform and return the rendered output."),
		mcp.WithString("report",
			mcp.Required(),
			mcp.Description("Path to the report definition YAML file"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: table, csv, json, yaml (default: configured default)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleRun)
	return nil
}

// registerEvalTool registers the report_eval tool.
func (s *Server) registerEvalTool() error {
	tool := mcp.NewTool("report_eval",
		mcp.WithDescription("Evaluate a sandboxed computed-field expression and return the result."),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("Expression to evaluate"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleEval)
	return nil
}

// registerConvertTool registers the report_convert tool.
func (s *Server) registerConvertTool() error {
	tool := mcp.NewTool("report_convert",
		mcp.WithDescription("Convert a value between memory or CPU frequency units."),
		mcp.WithNumber("value",
			mcp.Required(),
			mcp.Description("Value to convert"),
		),
		mcp.WithString("kind",
			mcp.Description("Unit family: mem or cpu (default: mem)"),
		),
		mcp.WithString("from",
			mcp.Description("Source unit (default: KB for mem, MHZ for cpu)"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Destination unit"),
		),
		mcp.WithNumber("precision",
			mcp.Description("Decimal places to round to (default: no rounding)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleConvert)
	return nil
}

// registerHistoryTool registers the report_history tool.
func (s *Server) registerHistoryTool() error {
	tool := mcp.NewTool("report_history",
		mcp.WithDescription("List recent report runs recorded in the local history database."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum runs to return (default: 10)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleHistory)
	return nil
}

// Tool handlers

func (s *Server) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	reportPath, ok := args["report"].(string)
	if !ok || reportPath == "" {
		return mcp.NewToolResultError("report parameter is required"), nil
	}
	format, _ := args["format"].(string)

	result, err := s.executeRun(ctx, reportPath, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleEval(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	expression, ok := args["expression"].(string)
	if !ok || expression == "" {
		return mcp.NewToolResultError("expression parameter is required"), nil
	}

	result, err := s.executeEval(expression)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	value, ok := args["value"].(float64)
	if !ok {
		return mcp.NewToolResultError("value parameter is required"), nil
	}
	to, ok := args["to"].(string)
	if !ok || to == "" {
		return mcp.NewToolResultError("to parameter is required"), nil
	}

	kind, _ := args["kind"].(string)
	from, _ := args["from"].(string)
	precision := units.NoRounding
	if p, ok := args["precision"].(float64); ok {
		precision = int(p)
	}

	result, err := s.executeConvert(value, kind, from, to, precision)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	limit := 10
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	result, err := s.executeHistory(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

// Tool implementations

func (s *Server) executeRun(ctx context.Context, reportPath, formatName string) (string, error) {
	def, err := config.LoadReport(reportPath)
	if err != nil {
		return "", err
	}

	if formatName == "" {
		formatName = def.Format
	}
	if formatName == "" {
		formatName = s.cfg.Output.DefaultFormat
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return "", err
	}
	renderer, err := output.GetRenderer(format)
	if err != nil {
		return "", err
	}

	conn, err := s.connect(s.cfg)
	if err != nil {
		return "", err
	}

	assembler, err := report.New(conn, def)
	if err != nil {
		return "", err
	}

	started := time.Now()
	rows, runErr := assembler.Apply(ctx)

	var buf bytes.Buffer
	if runErr == nil {
		runErr = renderer.Render(&buf, rows)
	}

	s.recordRun(def, reportPath, format, len(rows), buf.String(), started, runErr)

	if runErr != nil {
		return "", runErr
	}
	return buf.String(), nil
}

// recordRun stores the run outcome in the history database. History is
// best effort: a missing or unwritable database never fails the run.
func (s *Server) recordRun(def *config.Report, reportPath string, format output.Format, rowCount int, rendered string, started time.Time, runErr error) {
	configDir, err := config.FindConfigDir(s.workDir)
	if err != nil {
		return
	}
	store, err := history.Open(configDir)
	if err != nil {
		return
	}
	defer store.Close()

	name := def.Name
	if name == "" {
		name = filepath.Base(reportPath)
	}

	run := &history.Run{
		ReportName: name,
		ReportType: def.Type,
		Format:     format.String(),
		RowCount:   rowCount,
		Output:     rendered,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
	}

	_ = store.RecordRun(run)
}

func (s *Server) executeEval(expression string) (string, error) {
	v, err := expr.Evaluate(expression)
	if err != nil {
		return "", err
	}
	return expr.FormatValue(v), nil
}

func (s *Server) executeConvert(value float64, kind, from, to string, precision int) (string, error) {
	var (
		result fmt.Stringer
		err    error
	)

	switch kind {
	case "", "mem":
		result, err = units.MemCast(value, to, from, precision)
	case "cpu":
		result, err = units.CPUCast(value, to, from, precision)
	default:
		return "", fmt.Errorf("unknown unit family %q (expected mem or cpu)", kind)
	}
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

func (s *Server) executeHistory(limit int) (string, error) {
	configDir, err := config.FindConfigDir(s.workDir)
	if err != nil {
		return "", fmt.Errorf("no run history: %w", err)
	}
	store, err := history.Open(configDir)
	if err != nil {
		return "", err
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "no recorded runs", nil
	}

	var buf bytes.Buffer
	for _, run := range runs {
		fmt.Fprintf(&buf, "%s  %s  %s  %s  rows=%d  %s\n",
			run.StartedAt.Format(time.RFC3339), run.ID, run.ReportName,
			run.Status, run.RowCount, run.Format)
	}
	return buf.String(), nil
}
