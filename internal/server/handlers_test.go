package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/pcb-toolpath/internal/gcode"
	"github.com/ironsheep/pcb-toolpath/internal/imaging"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// createTestImageFile writes a PNG with a filled rectangle on a uniform
// background and returns its path.
func createTestImageFile(t *testing.T, width, height int, bg color.Color, rect image.Rectangle, fg color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(img, rect, image.NewUniform(fg), image.Point{}, draw.Src)

	path := filepath.Join(t.TempDir(), "artwork.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool invokes a tool through handleRequest and decodes its text
// content into out. It returns the JSON-RPC error, if any.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode tool result: %v", err)
		}
	}
	return nil
}

func errorKindOf(t *testing.T, e *MCPError) string {
	t.Helper()
	data, ok := e.Data.(toolError)
	if !ok {
		t.Fatalf("error data should be a toolError, got %T", e.Data)
	}
	return data.Kind
}

func TestHandleToolsCall_ToolpathGenerateCutting(t *testing.T) {
	s := New(Options{})

	var result ToolpathResult
	if e := callTool(t, s, "toolpath_generate", map[string]interface{}{"operation": "cutting"}, &result); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}

	if result.Operation != profile.Cutting {
		t.Errorf("operation: got %s", result.Operation)
	}
	if result.Commands != 13 {
		t.Errorf("commands: got %d, want 13", result.Commands)
	}
	if !strings.HasPrefix(result.GCode, "G21\nG90\nG0 Z5.000\nM3 S1000\n") {
		t.Errorf("unexpected program header:\n%s", result.GCode)
	}
}

func TestHandleToolsCall_ToolpathGenerateMillingToFile(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black)
	outPath := filepath.Join(t.TempDir(), "milling.gcode")

	var result ToolpathResult
	e := callTool(t, s, "toolpath_generate", map[string]interface{}{
		"path":        imgPath,
		"operation":   "milling",
		"output_path": outPath,
	}, &result)
	if e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if result.GCode != "" || result.OutputPath != outPath {
		t.Errorf("expected program written to %s, got %+v", outPath, result)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if err := gcode.ValidateText(strings.NewReader(string(data)), s.Config().Milling.Machine); err != nil {
		t.Errorf("written program fails validation: %v", err)
	}
}

func TestHandleToolsCall_ToolpathGenerateEmpty(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 100, 100, color.Black, image.Rectangle{}, color.Black)

	e := callTool(t, s, "toolpath_generate", map[string]interface{}{
		"path":      imgPath,
		"operation": "drilling",
	}, nil)
	if e == nil {
		t.Fatal("expected error for artwork without holes")
	}
	if e.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", e.Code)
	}
	if kind := errorKindOf(t, e); kind != "empty_geometry" {
		t.Errorf("error kind: got %q, want empty_geometry", kind)
	}
}

func TestHandleToolsCall_ToolpathGenerateErrors(t *testing.T) {
	s := New(Options{})
	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		args map[string]interface{}
		kind string
	}{
		{"unknown operation", map[string]interface{}{"operation": "engraving"}, "internal"},
		{"missing path", map[string]interface{}{"operation": "milling"}, "internal"},
		{"missing file", map[string]interface{}{"operation": "milling", "path": "/nonexistent/board.png"}, "internal"},
		{"undecodable", map[string]interface{}{"operation": "milling", "path": garbage}, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := callTool(t, s, "toolpath_generate", tt.args, nil)
			if e == nil {
				t.Fatal("expected error")
			}
			if kind := errorKindOf(t, e); kind != tt.kind {
				t.Errorf("error kind: got %q, want %q", kind, tt.kind)
			}
		})
	}
}

func TestHandleToolsCall_ToolpathValidate(t *testing.T) {
	s := New(Options{})
	program := "G21\nG90\nG0 Z5\nM3 S1000\nG0 X10 Y10 Z5\nG1 X10 Y10 Z-1 F100\nG0 X10 Y10 Z5\nM5\nM30\n"

	var ok ValidationResult
	if e := callTool(t, s, "toolpath_validate", map[string]interface{}{"operation": "drilling", "gcode": program}, &ok); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if !ok.Valid {
		t.Errorf("expected valid program, got %+v", ok)
	}

	// The same program cuts too deep for milling.
	var bad ValidationResult
	if e := callTool(t, s, "toolpath_validate", map[string]interface{}{"operation": "milling", "gcode": program}, &bad); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if bad.Valid || bad.Kind != "depth" {
		t.Errorf("expected depth failure, got %+v", bad)
	}
}

func TestHandleToolsCall_ToolpathValidateFile(t *testing.T) {
	s := New(Options{})
	path := filepath.Join(t.TempDir(), "outline.gcode")
	program := "G21\nG90\nG0 Z5\nM3 S1000\nG0 X150 Y0 Z5\n"
	if err := os.WriteFile(path, []byte(program), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	var result ValidationResult
	if e := callTool(t, s, "toolpath_validate", map[string]interface{}{"operation": "cutting", "path": path}, &result); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if result.Valid || result.Kind != "out_of_bounds" {
		t.Errorf("expected out_of_bounds failure, got %+v", result)
	}
}

func TestHandleToolsCall_ToolpathValidateMissingInput(t *testing.T) {
	s := New(Options{})
	if e := callTool(t, s, "toolpath_validate", map[string]interface{}{"operation": "cutting"}, nil); e == nil {
		t.Error("expected error without path or gcode")
	}
}

func TestHandleToolsCall_ProfileGet(t *testing.T) {
	s := New(Options{})

	var p profile.Profile
	if e := callTool(t, s, "profile_get", map[string]interface{}{"operation": "drilling"}, &p); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if p.Machine.Depth != -1.0 {
		t.Errorf("drilling depth: got %v, want -1", p.Machine.Depth)
	}

	var cfg profile.Config
	if e := callTool(t, s, "profile_get", map[string]interface{}{}, &cfg); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if cfg.Cutting.Machine.Depth != -0.5 || cfg.Milling.Machine.Depth != -0.05 {
		t.Errorf("unexpected configuration: %+v", cfg)
	}
}

func TestHandleToolsCall_ProfileReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cutting:\n  machine:\n    board_width: 80\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	s := New(Options{ConfigPath: path})

	var result ReloadResult
	if e := callTool(t, s, "profile_reload", map[string]interface{}{}, &result); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if result.Source != path {
		t.Errorf("source: got %q, want %q", result.Source, path)
	}

	var tp ToolpathResult
	if e := callTool(t, s, "toolpath_generate", map[string]interface{}{"operation": "cutting"}, &tp); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if !strings.Contains(tp.GCode, "G1 X80.000 Y100.000") {
		t.Errorf("reloaded board width not used:\n%s", tp.GCode)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 100, 80, color.White, image.Rectangle{}, color.White)

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	if e := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}, &info); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if info.Width != 100 || info.Height != 80 || info.Format != "png" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 200, 150, color.White, image.Rectangle{}, color.White)

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if e := callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}, &dims); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_ImageBinarize(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black)

	var preview struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		Foreground  int    `json:"foreground_pixels"`
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
	}
	if e := callTool(t, s, "image_binarize", map[string]interface{}{"path": imgPath}, &preview); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if preview.Width != 100 || preview.Height != 100 {
		t.Errorf("size: got %dx%d", preview.Width, preview.Height)
	}
	if preview.Foreground == 0 {
		t.Error("expected foreground pixels for the dark rectangle")
	}
	if preview.ImageBase64 == "" || preview.MimeType != "image/png" {
		t.Errorf("unexpected encoding: %q", preview.MimeType)
	}
}

// pageAtDPI renders a blank square page whose side is a tenth of the DPI.
type pageAtDPI struct{}

func (pageAtDPI) RasterizeFirstPage(_ context.Context, _ []byte, dpi int) (image.Image, error) {
	page := image.NewGray(image.Rect(0, 0, dpi/10, dpi/10))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	return page, nil
}

func TestHandleToolsCall_ImageBinarize_PDFDPI(t *testing.T) {
	cfg := profile.Default()
	cfg.Milling.Image.PDFDPI = 150
	s := New(Options{Config: cfg})
	s.cache = imaging.NewImageCache(&imaging.Decoder{Rasterizer: pageAtDPI{}})

	path := filepath.Join(t.TempDir(), "artwork.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatalf("failed to write pdf: %v", err)
	}

	var preview struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if e := callTool(t, s, "image_binarize", map[string]interface{}{"path": path, "operation": "milling"}, &preview); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if preview.Width != 15 || preview.Height != 15 {
		t.Errorf("preview rendered at %dx%d, want 15x15 from the profile's 150 dpi", preview.Width, preview.Height)
	}

	// The dimensions tool keeps the decoder default.
	var dims struct {
		Width int `json:"width"`
	}
	if e := callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}, &dims); e != nil {
		t.Fatalf("Unexpected error: %+v", e)
	}
	if dims.Width != imaging.DefaultPDFDPI/10 {
		t.Errorf("dimensions width: got %d, want %d", dims.Width, imaging.DefaultPDFDPI/10)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New(Options{})
	e := callTool(t, s, "image_crop", map[string]interface{}{}, nil)
	if e == nil {
		t.Fatal("expected error for unknown tool")
	}
	if e.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", e.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(Options{})
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&gcode.EmptyGeometryError{Operation: profile.Milling}, "empty_geometry"},
		{fmt.Errorf("wrapped: %w", &gcode.DepthError{}), "depth"},
		{&profile.ValidationError{}, "invalid_profile"},
		{&gcode.ParseError{Line: 1}, "parse"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v): got %q, want %q", tt.err, got, tt.want)
		}
	}
}
