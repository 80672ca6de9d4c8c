// Package mcp exposes the extraction engine over the Model Context
// Protocol: per-patient extraction, anchor lookup, digest inspection,
// and ground-truth evaluation as MCP tools on stdio transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/prontex/internal/compare"
	"github.com/hurttlocker/prontex/internal/corpus"
	"github.com/hurttlocker/prontex/internal/digest"
	"github.com/hurttlocker/prontex/internal/engine"
	"github.com/hurttlocker/prontex/internal/truth"
)

// ServerConfig wires the collaborators into the MCP surface. Truth is
// optional; without it the eval tool reports an error per call.
type ServerConfig struct {
	Store   *corpus.Store
	Truth   *truth.Table
	Engine  *engine.Engine
	Version string
}

// dbMu serializes tool calls. mcp-go dispatches handlers concurrently
// and the sqlite store supports one writer at a time.
var dbMu sync.Mutex

// NewServer builds the MCP server with all prontex tools registered.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	s := server.NewMCPServer(
		"Prontex",
		ver,
		server.WithToolCapabilities(false),
	)

	registerExtractTool(s, cfg)
	registerAnchorTool(s, cfg)
	registerDigestTool(s, cfg)
	registerEvalTool(s, cfg)
	return s
}

func loadDocument(ctx context.Context, store *corpus.Store, patient string) (*engine.Document, error) {
	fragments, err := store.Load(ctx, patient)
	if err != nil {
		return nil, err
	}
	return engine.NewDocument(fragments), nil
}

func registerExtractTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("prontex_extract",
		mcp.WithDescription("Extract every declared clinical field for one patient. Returns the field-to-value result map."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("patient",
			mcp.Required(),
			mcp.Description("Patient slug, e.g. Paciente_0000001"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		patient, err := req.RequireString("patient")
		if err != nil {
			return mcp.NewToolResultError("patient is required"), nil
		}
		doc, err := loadDocument(ctx, cfg.Store, patient)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading record: %v", err)), nil
		}
		result := cfg.Engine.Extract(ctx, doc)

		out := make(map[string]string, len(result))
		for field, v := range result {
			out[field] = v.String()
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerAnchorTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("prontex_anchor",
		mcp.WithDescription("Resolve the index-surgery anchor date for one patient."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("patient",
			mcp.Required(),
			mcp.Description("Patient slug"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		patient, err := req.RequireString("patient")
		if err != nil {
			return mcp.NewToolResultError("patient is required"), nil
		}
		doc, err := loadDocument(ctx, cfg.Store, patient)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading record: %v", err)), nil
		}
		if doc.Anchor == "" {
			return mcp.NewToolResultText("no anchor date found"), nil
		}
		return mcp.NewToolResultText(doc.Anchor), nil
	})
}

func registerDigestTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("prontex_digest",
		mcp.WithDescription("Build the relevant-context digest for one patient: the budget-bounded excerpt handed to the external oracle."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("patient",
			mcp.Required(),
			mcp.Description("Patient slug"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		patient, err := req.RequireString("patient")
		if err != nil {
			return mcp.NewToolResultError("patient is required"), nil
		}
		doc, err := loadDocument(ctx, cfg.Store, patient)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading record: %v", err)), nil
		}
		return mcp.NewToolResultText(doc.Digest(digest.DefaultConfig())), nil
	})
}

func registerEvalTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("prontex_eval",
		mcp.WithDescription("Extract one patient and score the result against the ground-truth spreadsheet. Returns per-field matches and accuracy."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("patient",
			mcp.Required(),
			mcp.Description("Patient slug"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		if cfg.Truth == nil {
			return mcp.NewToolResultError("no ground-truth spreadsheet configured"), nil
		}
		patient, err := req.RequireString("patient")
		if err != nil {
			return mcp.NewToolResultError("patient is required"), nil
		}
		doc, err := loadDocument(ctx, cfg.Store, patient)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading record: %v", err)), nil
		}
		row, err := cfg.Truth.Row(patient)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading ground truth: %v", err)), nil
		}

		result := cfg.Engine.Extract(ctx, doc)
		predicted := make(map[string]string, len(result))
		var fields []string
		for _, desc := range engine.Fields() {
			fields = append(fields, desc.Name)
			predicted[desc.Name] = result[desc.Name].String()
		}
		report := compare.CompareRow(fields, predicted, row.FieldValue)

		data, _ := json.MarshalIndent(struct {
			Correct  int                   `json:"correct"`
			Total    int                   `json:"total"`
			Accuracy float64               `json:"accuracy"`
			Fields   []compare.FieldResult `json:"fields"`
		}{report.Correct, report.Total, report.Accuracy(), report.Fields}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
