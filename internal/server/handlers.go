package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ironsheep/pcb-toolpath/internal/gcode"
	"github.com/ironsheep/pcb-toolpath/internal/imaging"
	"github.com/ironsheep/pcb-toolpath/internal/pipeline"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "toolpath_generate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data carries the error kind and message.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", toolError{
			Kind:    errorKind(err),
			Message: err.Error(),
		})
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Toolpaths
	case "toolpath_generate":
		return s.handleToolpathGenerate(ctx, args)
	case "toolpath_validate":
		return s.handleToolpathValidate(args)

	// Configuration
	case "profile_get":
		return s.handleProfileGet(args)
	case "profile_reload":
		return s.handleProfileReload()

	// Input inspection
	case "image_load":
		return s.handleImageLoad(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(ctx, args)
	case "image_binarize":
		return s.handleImageBinarize(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// toolError is the data attached to a failed tool call. Kind lets clients
// branch on the failure without parsing the message.
type toolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorKind names the typed error at the root of err.
func errorKind(err error) string {
	var (
		decodeErr      *pipeline.DecodeError
		unsupportedErr *pipeline.UnsupportedInputError
		degenerateErr  *pipeline.DegenerateImageError
		boundsErr      *pipeline.OutOfBoundsError
		emptyErr       *pipeline.EmptyGeometryError
		depthErr       *pipeline.DepthError
		sequenceErr    *pipeline.SequenceError
		validationErr  *pipeline.ValidationError
		parseErr       *gcode.ParseError
	)
	switch {
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &unsupportedErr):
		return "unsupported_input"
	case errors.As(err, &degenerateErr):
		return "degenerate_image"
	case errors.As(err, &boundsErr):
		return "out_of_bounds"
	case errors.As(err, &emptyErr):
		return "empty_geometry"
	case errors.As(err, &depthErr):
		return "depth"
	case errors.As(err, &sequenceErr):
		return "sequence"
	case errors.As(err, &validationErr):
		return "invalid_profile"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "internal"
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// profileFor resolves an operation name against the active configuration.
func (s *Server) profileFor(name string) (profile.Operation, *profile.Profile, error) {
	op, err := profile.ParseOperation(name)
	if err != nil {
		return "", nil, err
	}
	p, err := s.Config().For(op)
	if err != nil {
		return "", nil, err
	}
	return op, p, nil
}

// === Toolpath Handlers ===

// defaultTimeout bounds a toolpath_generate call that sets no timeout.
const defaultTimeout = 2 * time.Minute

type toolpathGenerateArgs struct {
	Path           string  `json:"path"`
	Operation      string  `json:"operation"`
	OutputPath     string  `json:"output_path"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

// ToolpathResult describes a generated program. GCode is omitted when the
// program was written to OutputPath.
type ToolpathResult struct {
	Operation  profile.Operation `json:"operation"`
	Commands   int               `json:"commands"`
	GCode      string            `json:"gcode,omitempty"`
	OutputPath string            `json:"output_path,omitempty"`
}

func (s *Server) handleToolpathGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a toolpathGenerateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	op, p, err := s.profileFor(a.Operation)
	if err != nil {
		return nil, err
	}

	var input []byte
	if op != profile.Cutting {
		if a.Path == "" {
			return nil, fmt.Errorf("path is required for %s", op)
		}
		input, err = os.ReadFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
	}

	timeout := defaultTimeout
	if a.TimeoutSeconds > 0 {
		timeout = time.Duration(a.TimeoutSeconds * float64(time.Second))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tp, err := s.pipeline.RunContext(ctx, input, op, p)
	if err != nil {
		return nil, err
	}

	result := &ToolpathResult{Operation: op, Commands: tp.Len()}
	if a.OutputPath == "" {
		result.GCode = tp.String()
		return result, nil
	}

	var buf bytes.Buffer
	if _, err := tp.WriteTo(&buf); err != nil {
		return nil, err
	}
	if err := os.WriteFile(a.OutputPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write toolpath: %w", err)
	}
	result.OutputPath = a.OutputPath
	return result, nil
}

type toolpathValidateArgs struct {
	Path      string `json:"path"`
	GCode     string `json:"gcode"`
	Operation string `json:"operation"`
}

// ValidationResult reports whether a program is safe for a machine profile.
// A failing program is a normal result, not a tool error.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Operation profile.Operation `json:"operation"`
	Kind      string            `json:"kind,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

func (s *Server) handleToolpathValidate(args json.RawMessage) (interface{}, error) {
	var a toolpathValidateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	op, p, err := s.profileFor(a.Operation)
	if err != nil {
		return nil, err
	}

	text := a.GCode
	if a.Path != "" {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read gcode: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("one of path or gcode is required")
	}

	result := &ValidationResult{Valid: true, Operation: op}
	if err := gcode.ValidateText(strings.NewReader(text), p.Machine); err != nil {
		result.Valid = false
		result.Kind = errorKind(err)
		result.Reason = err.Error()
	}
	return result, nil
}

// === Configuration Handlers ===

type profileGetArgs struct {
	Operation string `json:"operation"`
}

func (s *Server) handleProfileGet(args json.RawMessage) (interface{}, error) {
	var a profileGetArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	if a.Operation == "" {
		return s.Config(), nil
	}
	_, p, err := s.profileFor(a.Operation)
	return p, err
}

// ReloadResult reports where the active configuration came from.
type ReloadResult struct {
	Source     string              `json:"source"`
	Operations []profile.Operation `json:"operations"`
}

func (s *Server) handleProfileReload() (interface{}, error) {
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	source := s.configPath
	if source == "" {
		source = "defaults"
	}
	return &ReloadResult{Source: source, Operations: profile.Operations}, nil
}

// === Input Inspection Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(ctx, s.cache, a.Path)
}

func (s *Server) handleImageDimensions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(ctx, s.cache, a.Path)
}

type imageBinarizeArgs struct {
	Path      string `json:"path"`
	Operation string `json:"operation"`
}

// handleImageBinarize shows the mask an operation would extract shapes
// from, so threshold settings can be tuned before cutting anything.
func (s *Server) handleImageBinarize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageBinarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Operation == "" {
		a.Operation = string(profile.Milling)
	}
	op, p, err := s.profileFor(a.Operation)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(op); err != nil {
		return nil, err
	}

	// Render PDFs at the profile's DPI so the preview matches what
	// toolpath_generate extracts from.
	img, err := s.cache.LoadAt(ctx, a.Path, p.Image.PDFDPI)
	if err != nil {
		return nil, err
	}
	return imaging.Binarize(img, p.Image).Preview()
}
