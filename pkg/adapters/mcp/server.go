// Package mcp exposes the graph manager as an MCP server so that
// AI agents can inspect and edit canvases over the Model Context
// Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/easelab/easel"
	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/engine"
)

// Manager is the slice of the graph manager the MCP tools drive.
type Manager interface {
	ListGraphs(ctx context.Context) ([]domain.GraphInfo, error)
	Load(ctx context.Context, id string) error
	Save(ctx context.Context, name, description string, forceNew bool) (*engine.SaveResult, error)
	DeleteGraph(ctx context.Context, id string) error
	AddNode(ctx context.Context, n domain.Node) (domain.Node, error)
	AddEdge(ctx context.Context, source, target string, typ domain.EdgeType, force bool) (domain.Edge, error)
	WouldCreateCycle(source, target string) bool
	ExecutionOrder() ([]string, error)
	Export() *domain.Snapshot
	GraphID() string
	Modified() bool
}

// ConnectionCheck reports whether a proposed edge is safe to add.
type ConnectionCheck struct {
	Source           string `json:"source" jsonschema_description:"Proposed edge source node id"`
	Target           string `json:"target" jsonschema_description:"Proposed edge target node id"`
	WouldCreateCycle bool   `json:"wouldCreateCycle" jsonschema_description:"True when adding the edge would close a cycle"`
}

// SaveResponse summarizes a push of the open graph to the remote
// service.
type SaveResponse struct {
	GraphID   string   `json:"graphId" jsonschema_description:"Remote id of the saved graph"`
	New       bool     `json:"new" jsonschema_description:"True when the graph was created rather than updated"`
	Succeeded int      `json:"succeeded" jsonschema_description:"Sync operations that succeeded"`
	Failed    int      `json:"failed" jsonschema_description:"Sync operations that failed"`
	Errors    []string `json:"errors,omitempty" jsonschema_description:"Messages of the failed operations"`
}

// Server wraps the graph manager and exposes it as an MCP Server.
type Server struct {
	manager   Manager
	log       *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used for transport lifecycle messages.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(manager Manager, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("easel-mcp", strings.TrimSpace(easel.Version)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.log.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// decodeArgs binds the loosely typed tool arguments onto a struct.
// WeakDecode tolerates JSON numbers arriving as float64.
func decodeArgs(request mcp.CallToolRequest, out any) error {
	return mapstructure.WeakDecode(request.GetArguments(), out)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_graphs",
		mcp.WithDescription("List the graphs stored on the remote service."),
	), s.handleListGraphs)

	s.mcpServer.AddTool(mcp.NewTool("load_graph",
		mcp.WithDescription("Load a graph from the remote service into the canvas."),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("Id of the graph to load")),
	), s.handleLoadGraph)

	saveTool := mcp.NewTool("save_graph",
		mcp.WithDescription("Save the open graph to the remote service. Partial failures are reported, not fatal."),
		mcp.WithString("name", mcp.Description("Replace the graph name before saving")),
		mcp.WithString("description", mcp.Description("Replace the graph description before saving")),
		mcp.WithBoolean("force_new", mcp.Description("Save as a new graph even if one is already bound")),
		mcp.WithOutputSchema[SaveResponse](),
	)
	s.mcpServer.AddTool(saveTool, mcp.NewStructuredToolHandler(s.handleSaveGraph))

	s.mcpServer.AddTool(mcp.NewTool("delete_graph",
		mcp.WithDescription("Delete a graph from the remote service."),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("Id of the graph to delete")),
	), s.handleDeleteGraph)

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Add an AI-agent node to the open graph."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("backend", mcp.Description("Provider backend, e.g. openai")),
		mcp.WithString("model", mcp.Description("Model identifier")),
		mcp.WithString("system_message", mcp.Description("System prompt for the node")),
		mcp.WithNumber("temperature", mcp.Description("Sampling temperature (default 0.7)")),
		mcp.WithNumber("max_tokens", mcp.Description("Response token budget (default 1024)")),
		mcp.WithString("id", mcp.Description("Node id; assigned when omitted")),
	), s.handleAddNode)

	s.mcpServer.AddTool(mcp.NewTool("connect_nodes",
		mcp.WithDescription("Connect two nodes. Connections that would close a cycle are refused unless force is set."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("type", mcp.Description("Edge type: provides_context (default) or controls_flow")),
		mcp.WithBoolean("force", mcp.Description("Allow the connection even if it closes a cycle")),
	), s.handleConnectNodes)

	checkTool := mcp.NewTool("check_connection",
		mcp.WithDescription("Check whether connecting two nodes would close a cycle, without changing the graph."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithOutputSchema[ConnectionCheck](),
	)
	s.mcpServer.AddTool(checkTool, mcp.NewStructuredToolHandler(s.handleCheckConnection))

	s.mcpServer.AddTool(mcp.NewTool("execution_order",
		mcp.WithDescription("Topological execution order of the open graph."),
	), s.handleExecutionOrder)

	s.mcpServer.AddTool(mcp.NewTool("export_graph",
		mcp.WithDescription("Export the open graph as its canonical JSON snapshot."),
	), s.handleExportGraph)
}

func (s *Server) handleListGraphs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.manager.ListGraphs(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(infos)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleLoadGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		GraphID string `mapstructure:"graph_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.GraphID == "" {
		return mcp.NewToolResultError("graph_id is required"), nil
	}

	if err := s.manager.Load(ctx, args.GraphID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	snap := s.manager.Export()
	return mcp.NewToolResultText(fmt.Sprintf("loaded graph %q (%d nodes, %d edges)", snap.ID, len(snap.Nodes), len(snap.Edges))), nil
}

func (s *Server) handleSaveGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SaveResponse, error) {
	var in struct {
		Name        string `mapstructure:"name"`
		Description string `mapstructure:"description"`
		ForceNew    bool   `mapstructure:"force_new"`
	}
	if err := mapstructure.WeakDecode(args, &in); err != nil {
		return SaveResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}

	result, err := s.manager.Save(ctx, in.Name, in.Description, in.ForceNew)
	if err != nil {
		return SaveResponse{}, fmt.Errorf("save failed: %w", err)
	}

	resp := SaveResponse{
		GraphID: result.GraphID,
		New:     result.New,
	}
	if result.Report != nil {
		resp.Succeeded = result.Report.Succeeded
		resp.Failed = result.Report.Failed
		for _, opErr := range result.Report.Errors {
			resp.Errors = append(resp.Errors, opErr.Error())
		}
	}
	return resp, nil
}

func (s *Server) handleDeleteGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		GraphID string `mapstructure:"graph_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.GraphID == "" {
		return mcp.NewToolResultError("graph_id is required"), nil
	}

	if err := s.manager.DeleteGraph(ctx, args.GraphID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted graph %q", args.GraphID)), nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ID            string   `mapstructure:"id"`
		Name          string   `mapstructure:"name"`
		Backend       string   `mapstructure:"backend"`
		Model         string   `mapstructure:"model"`
		SystemMessage string   `mapstructure:"system_message"`
		Temperature   *float64 `mapstructure:"temperature"`
		MaxTokens     *int     `mapstructure:"max_tokens"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	n := domain.NewNode(args.ID, args.Name, args.Backend, args.Model)
	n.SystemMessage = args.SystemMessage
	if args.Temperature != nil {
		n.Temperature = *args.Temperature
	}
	if args.MaxTokens != nil {
		n.MaxTokens = *args.MaxTokens
	}

	created, err := s.manager.AddNode(ctx, n)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add node failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(created)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleConnectNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Source string `mapstructure:"source"`
		Target string `mapstructure:"target"`
		Type   string `mapstructure:"type"`
		Force  bool   `mapstructure:"force"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	edge, err := s.manager.AddEdge(ctx, args.Source, args.Target, domain.EdgeType(args.Type), args.Force)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("connect failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(edge)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCheckConnection(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ConnectionCheck, error) {
	var in struct {
		Source string `mapstructure:"source"`
		Target string `mapstructure:"target"`
	}
	if err := mapstructure.WeakDecode(args, &in); err != nil {
		return ConnectionCheck{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if in.Source == "" || in.Target == "" {
		return ConnectionCheck{}, fmt.Errorf("source and target are required")
	}

	return ConnectionCheck{
		Source:           in.Source,
		Target:           in.Target,
		WouldCreateCycle: s.manager.WouldCreateCycle(in.Source, in.Target),
	}, nil
}

func (s *Server) handleExecutionOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	order, err := s.manager.ExecutionOrder()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no execution order: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(order)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleExportGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(s.manager.Export())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("easel://graph", "Open Graph Snapshot",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.manager.Export())
		if err != nil {
			return nil, fmt.Errorf("failed to export graph: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "easel://graph",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
