// Package server implements the MCP (Model Context Protocol) server that
// exposes the toolpath pipeline as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Toolpaths:
//   - toolpath_generate: Artwork to G-code for cutting, milling or drilling
//   - toolpath_validate: Check G-code against a machine profile
//
// Configuration:
//   - profile_get: Show the active profile
//   - profile_reload: Re-read the configuration file
//
// Input inspection:
//   - image_load: Load artwork and get metadata
//   - image_dimensions: Get width and height
//   - image_binarize: Preview the binary mask an operation would use
//
// # Configuration
//
// The active configuration is replaced as a whole on profile_reload. A call
// already in progress keeps the profile it started with.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: {"kind": ..., "message": ...}, where kind names the failure
//     (empty_geometry, out_of_bounds, decode, timeout and so on)
//
// # Usage
//
//	srv := server.New(server.Options{Config: cfg, ConfigPath: path})
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
