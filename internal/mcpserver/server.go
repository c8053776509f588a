// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes SOPRef and vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sopgate/internal/apperr"
	"github.com/starford/sopgate/internal/noteservice"
	"github.com/starford/sopgate/internal/pathguard"
	"github.com/starford/sopgate/internal/sopref"
)

// Server wraps the MCP server with the sopgate tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
	nav sopref.Navigator
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, nav sopref.Navigator) *Server {
	s := &Server{svc: svc, nav: nav}

	s.mcp = server.NewMCPServer(
		"sopgate",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("append_note",
		mcp.WithDescription("Append text to a Markdown note in the vault. "+
			"Only allowlisted folders are writable. Cite SOPs with SOPRef[path#section]; "+
			"read the "+SyntaxURI+" resource for the exact syntax."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (e.g. Inbox/today.md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to append verbatim")),
	), s.appendNote)

	s.mcp.AddTool(mcp.NewTool("parse_references",
		mcp.WithDescription("List the SOPRef citations found in a text, in order."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Free-form text")),
	), s.parseReferences)

	s.mcp.AddTool(mcp.NewTool("render_references",
		mcp.WithDescription("Replace SOPRef citations in a text with HTML reference links."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Free-form text")),
	), s.renderReferences)

	s.mcp.AddTool(mcp.NewTool("reference_url",
		mcp.WithDescription("Build the reference viewer URL for a cited SOP path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Cited path (e.g. sop/05-intake.md)")),
		mcp.WithString("section", mcp.Description("Optional section within the document")),
	), s.referenceURL)

	s.mcp.AddTool(mcp.NewTool("find_citations",
		mcp.WithDescription("Find vault notes that cite a SOP path (or path#section)."),
		mcp.WithString("target", mcp.Required(), mcp.Description("path or path#section")),
	), s.findCitations)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note")),
	), s.readNote)

	s.mcp.AddResource(
		mcp.NewResource(SyntaxURI, "SOPRef Citation Syntax",
			mcp.WithResourceDescription("How to write SOPRef citations in notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) appendNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Append(ctx, path, content)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended %d bytes to %s", res.AppendedBytes, res.Path)), nil
}

func (s *Server) parseReferences(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sopref.Parse(content))
}

func (s *Server) renderReferences(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sopref.RenderHTML(content)), nil
}

func (s *Server) referenceURL(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var section *string
	if v, ok := req.GetArguments()["section"].(string); ok {
		section = &v
	}
	return mcp.NewToolResultText(s.nav.URL(path, section)), nil
}

func (s *Server) findCitations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cites, err := s.svc.Citations(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cites) == 0 {
		return mcp.NewToolResultText("no citations found"), nil
	}
	return jsonResult(cites)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, data, err := s.svc.Read(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SyntaxURI,
			MIMEType: "text/markdown",
			Text:     SyntaxContract,
		},
	}, nil
}

func toolError(err error) *mcp.CallToolResult {
	var rej *pathguard.Rejection
	switch {
	case errors.As(err, &rej):
		return mcp.NewToolResultError(fmt.Sprintf("rejected (%d): %s", rej.Status, rej.Reason))
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
