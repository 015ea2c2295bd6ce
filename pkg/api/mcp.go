package api

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/crosswalk/pkg/dataset"
	"github.com/hazyhaar/crosswalk/pkg/kit"
)

// NewMCPServer returns an MCP server exposing the crosswalk tools.
func NewMCPServer(reg *dataset.Registry, logger *slog.Logger, version string) *server.MCPServer {
	srv := server.NewMCPServer("crosswalk", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, reg, logger)
	return srv
}

// RegisterMCPTools registers the crosswalk MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, reg *dataset.Registry, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	eps := newEndpoints(reg, logger)

	kit.RegisterMCPTool(srv, mcp.NewTool("resolve_record",
		mcp.WithDescription("Resolve a record against a reference dataset and return the single matching mapping entry."),
		mcp.WithString("dataset", mcp.Required(), mcp.Description("Dataset ID (see list_datasets)")),
		mcp.WithString("record", mcp.Required(), mcp.Description(`Record attributes as a JSON object, e.g. {"name": "steel", "unit": "kg"}`)),
	), eps.resolve, decodeResolve)

	kit.RegisterMCPTool(srv, mcp.NewTool("describe_dataset",
		mcp.WithDescription("Show a dataset's metadata and the field combinations records are matched by."),
		mcp.WithString("dataset", mcp.Required(), mcp.Description("Dataset ID")),
	), eps.describe, func(args map[string]any) (any, error) {
		id, err := kit.RequiredString(args, "dataset")
		if err != nil {
			return nil, err
		}
		return &describeReq{Dataset: id}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("list_datasets",
		mcp.WithDescription("List all loaded reference datasets with entry counts and matching options."),
	), eps.listDatasets, kit.NoArgs)
}

// decodeResolve accepts the record either as a JSON string or as an object.
func decodeResolve(args map[string]any) (any, error) {
	id, err := kit.RequiredString(args, "dataset")
	if err != nil {
		return nil, err
	}
	record, err := kit.ObjectArg(args, "record")
	if err != nil {
		return nil, err
	}
	return &resolveReq{Dataset: id, Record: record}, nil
}
