package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/ironsheep/pcb-toolpath/internal/imaging"
	"github.com/ironsheep/pcb-toolpath/internal/pipeline"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	version  string

	// config is swapped whole by profile_reload; runs already holding a
	// profile keep using it.
	config     atomic.Pointer[profile.Config]
	configPath string
}

// Options configures a Server. Zero fields get defaults.
type Options struct {
	Logger *slog.Logger

	// Config is the initial configuration. Defaults to profile.Default().
	Config *profile.Config

	// ConfigPath is re-read by profile_reload. Empty means reload restores
	// the built-in defaults.
	ConfigPath string

	// Pipeline runs toolpath_generate. Defaults to one sharing Logger.
	Pipeline *pipeline.Pipeline

	// Version is reported during the initialize handshake.
	Version string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Config == nil {
		opts.Config = profile.Default()
	}
	if opts.Pipeline == nil {
		opts.Pipeline = pipeline.New(pipeline.Config{Logger: opts.Logger})
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		cache:      imaging.NewImageCache(imaging.NewDecoder(imaging.DefaultPDFDPI)),
		pipeline:   opts.Pipeline,
		logger:     opts.Logger,
		version:    opts.Version,
		configPath: opts.ConfigPath,
	}
	s.config.Store(opts.Config)
	return s
}

// Config returns the active configuration.
func (s *Server) Config() *profile.Config {
	return s.config.Load()
}

// Reload re-reads the configuration file, or restores the defaults when the
// server has none, and swaps it in. A bad file leaves the active
// configuration untouched.
func (s *Server) Reload() (*profile.Config, error) {
	cfg := profile.Default()
	if s.configPath != "" {
		loaded, err := profile.Load(s.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	s.config.Store(cfg)
	s.logger.Info("configuration reloaded", "path", s.configPath)
	return cfg, nil
}

// Run reads one JSON-RPC request per line from r and writes responses to w
// until r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "pcb-toolpath",
				"version": s.version,
			},
		},
	}
}
