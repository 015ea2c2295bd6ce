package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDecoder turns tool arguments into an endpoint request.
type MCPDecoder func(args map[string]any) (any, error)

// NoArgs decodes tools that take no arguments.
func NoArgs(map[string]any) (any, error) { return nil, nil }

// RegisterMCPTool exposes endpoint as an MCP tool. Decode and endpoint
// failures come back as tool results flagged isError; the JSON-RPC call
// itself succeeds.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		resp, err := endpoint(WithTransport(ctx, "mcp"), request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

// RequiredString returns the non-empty string argument name.
func RequiredString(args map[string]any, name string) (string, error) {
	s, _ := args[name].(string)
	if s == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

// ObjectArg returns the object argument name, accepting either a JSON
// object or a string holding one.
func ObjectArg(args map[string]any, name string) (map[string]any, error) {
	var obj map[string]any
	switch v := args[name].(type) {
	case map[string]any:
		obj = v
	case string:
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			return nil, fmt.Errorf("%s is not a JSON object: %w", name, err)
		}
	}
	if obj == nil {
		return nil, fmt.Errorf("%s is required", name)
	}
	return obj, nil
}
