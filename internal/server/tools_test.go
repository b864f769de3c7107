package server

import (
	"testing"
)

func toolMap() map[string]Tool {
	m := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		m[tool.Name] = tool
	}
	return m
}

func TestGetToolDefinitions(t *testing.T) {
	expectedTools := []string{
		"toolpath_generate",
		"toolpath_validate",
		"profile_get",
		"profile_reload",
		"image_load",
		"image_dimensions",
		"image_binarize",
	}

	tools := toolMap()
	if len(tools) != len(GetToolDefinitions()) {
		t.Error("tool names are not unique")
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required parameter must be declared.
			required, _ := tool.InputSchema["required"].([]string)
			for _, name := range required {
				if _, ok := props[name]; !ok {
					t.Errorf("required parameter %q not in properties", name)
				}
			}
		})
	}
}

func TestToolDefinitions_RequiredParams(t *testing.T) {
	tests := []struct {
		tool  string
		param string
	}{
		{"toolpath_generate", "operation"},
		{"toolpath_validate", "operation"},
		{"image_load", "path"},
		{"image_dimensions", "path"},
		{"image_binarize", "path"},
	}

	tools := toolMap()
	for _, tt := range tests {
		required, _ := tools[tt.tool].InputSchema["required"].([]string)
		found := false
		for _, r := range required {
			if r == tt.param {
				found = true
			}
		}
		if !found {
			t.Errorf("%s should require %q", tt.tool, tt.param)
		}
	}
}

func TestToolDefinitions_OperationEnum(t *testing.T) {
	for _, name := range []string{"toolpath_generate", "toolpath_validate", "profile_get", "image_binarize"} {
		props := toolMap()[name].InputSchema["properties"].(map[string]interface{})
		op, ok := props["operation"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: missing operation parameter", name)
			continue
		}
		enum, _ := op["enum"].([]string)
		if len(enum) != 3 {
			t.Errorf("%s: operation enum %v", name, enum)
		}
	}
}
