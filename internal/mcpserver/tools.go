// Package mcpserver exposes the sales database to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/salesquery/salesquery/internal/agent"
	"github.com/salesquery/salesquery/internal/schema"
	"github.com/salesquery/salesquery/internal/warehouse"
)

const (
	ServerName    = "salesquery"
	ServerVersion = "0.1.0"
)

type Catalog interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) ([]schema.Column, error)
}

type SQLRunner interface {
	RunSQL(ctx context.Context, sqlText string) (agent.Response, error)
}

type columnInfo struct {
	Name       string `json:"column_name"`
	Type       string `json:"column_type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

func New(catalog Catalog, runner SQLRunner) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	RegisterTools(s, catalog, runner)
	return s
}

func RegisterTools(s *server.MCPServer, catalog Catalog, runner SQLRunner) {
	listTool := mcp.NewTool("list_tables",
		mcp.WithDescription("Returns a list of all table names in the sales database"),
	)
	describeTool := mcp.NewTool("describe_schema",
		mcp.WithDescription("Returns the columns of a table with their types, nullability and primary key flag"),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("Name of the table to describe"),
		),
	)
	queryTool := mcp.NewTool("execute_query",
		mcp.WithDescription("Executes a read-only SELECT query against the sales database"),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("A single SELECT statement"),
		),
	)

	s.AddTool(listTool, ListTablesHandler(catalog))
	s.AddTool(describeTool, DescribeSchemaHandler(catalog))
	s.AddTool(queryTool, ExecuteQueryHandler(runner))
}

func ListTablesHandler(catalog Catalog) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := catalog.ListTables(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("List tables failed: %v", err)), nil
		}
		return jsonResult(tables)
	}
}

func DescribeSchemaHandler(catalog Catalog) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := request.RequireString("table_name")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing table_name parameter: %v", err)), nil
		}

		columns, err := catalog.DescribeTable(ctx, table)
		if errors.Is(err, warehouse.ErrTableNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Table '%s' does not exist in the database.", table)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Describe failed: %v", err)), nil
		}

		out := make([]columnInfo, 0, len(columns))
		for _, column := range columns {
			out = append(out, columnInfo{
				Name:       column.Name,
				Type:       column.Type,
				NotNull:    !column.Nullable,
				PrimaryKey: column.PrimaryKey,
			})
		}
		return jsonResult(out)
	}
}

func ExecuteQueryHandler(runner SQLRunner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlText, err := request.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing sql parameter: %v", err)), nil
		}

		resp, err := runner.RunSQL(ctx, sqlText)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Query failed: %v", err)), nil
		}
		return jsonResult(resp.Results)
	}
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
