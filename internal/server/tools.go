package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func operationProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"cutting", "milling", "drilling"},
		"description": description,
	}
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Toolpaths
		{
			Name:        "toolpath_generate",
			Description: "Convert PCB artwork (PNG, JPEG, GIF, TIFF, BMP, WebP or the first page of a PDF) into a G-code toolpath for one operation. Cutting traces the board outline and needs no input file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty("Absolute path to the artwork file. Ignored for cutting."),
					"operation": operationProperty("Machining operation"),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write the G-code to. When omitted the program is returned inline.",
					},
					"timeout_seconds": map[string]interface{}{
						"type":        "number",
						"description": "Abort the run after this many seconds. Default 120",
						"default":     120,
					},
				},
				"required": []string{"operation"},
			},
		},
		{
			Name:        "toolpath_validate",
			Description: "Check a G-code program against the active machine profile: coordinates inside the board, Z only at safe height or cut depth, spindle running for every move and no rapid moves below safe height.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to a G-code file"),
					"gcode": map[string]interface{}{
						"type":        "string",
						"description": "G-code text, used when path is not given",
					},
					"operation": operationProperty("Operation whose machine profile the program must satisfy"),
				},
				"required": []string{"operation"},
			},
		},

		// Configuration
		{
			Name:        "profile_get",
			Description: "Return the active machine and processing profile for one operation, or the whole configuration when no operation is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"operation": operationProperty("Optional operation to return"),
				},
			},
		},
		{
			Name:        "profile_reload",
			Description: "Re-read the configuration file and make it active for subsequent calls. An invalid file leaves the current configuration in place.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Input inspection
		{
			Name:        "image_load",
			Description: "Load an artwork file and return its dimensions, format and color depth. PDFs report the rendered first page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the artwork file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an artwork file in pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the artwork file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_binarize",
			Description: "Binarize artwork with an operation's image settings and return the mask as base64 PNG (foreground white). Use this to tune thresholds before generating a toolpath.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty("Absolute path to the artwork file"),
					"operation": operationProperty("Operation whose image settings to use. Default milling"),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
