// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Word Vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/models"
	"github.com/starford/wordvault/internal/wordservice"
)

const (
	uriCardFormat = "wordvault://card-format"
	uriExport     = "wordvault://export"
)

// Server wraps the MCP server with Word Vault tools.
type Server struct {
	mcp *server.MCPServer
	svc *wordservice.Service
}

// New creates a new MCP server with all Word Vault tools registered.
func New(svc *wordservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Word Vault",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("save_word",
		mcp.WithDescription("Save a word card to the vault. If a remote endpoint is configured "+
			"the card is sent there instead of being stored locally."),
		mcp.WithString("word", mcp.Required(), mcp.Description("The word or phrase")),
		mcp.WithString("meaning", mcp.Description("Definition; looked up in the dictionary when omitted")),
		mcp.WithString("mnemonic", mcp.Description("Your own understanding of the word")),
		mcp.WithString("context", mcp.Description("Where the word was seen")),
		mcp.WithString("source_url", mcp.Description("Page URL the word came from")),
	), s.saveWord)

	s.mcp.AddTool(mcp.NewTool("list_words",
		mcp.WithDescription("List saved word cards, newest first."),
	), s.listWords)

	s.mcp.AddTool(mcp.NewTool("search_words",
		mcp.WithDescription("Full-text search across words, meanings, notes and context."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchWords)

	s.mcp.AddTool(mcp.NewTool("define_word",
		mcp.WithDescription("Look up the dictionary definition of an English word."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to define")),
	), s.defineWord)

	s.mcp.AddTool(mcp.NewTool("export_markdown",
		mcp.WithDescription("Export the whole vault as a Markdown document."),
	), s.exportMarkdown)

	s.mcp.AddTool(mcp.NewTool("import_markdown",
		mcp.WithDescription("Append cards from a Markdown export. Read the card format first via "+
			"the get_card_format tool or the "+uriCardFormat+" resource."),
		mcp.WithString("source", mcp.Required(),
			mcp.Description("Markdown text, a base64 data: URI, or an http(s) URL of an export")),
	), s.importMarkdown)

	s.mcp.AddTool(mcp.NewTool("get_card_format",
		mcp.WithDescription("Returns the word card fields and the Markdown export layout."),
	), s.getCardFormat)

	s.mcp.AddResource(
		mcp.NewResource(uriCardFormat, "Card Format",
			mcp.WithResourceDescription("Word card fields and Markdown export layout."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(uriExport, "Vault Export",
			mcp.WithResourceDescription("Current vault contents as Markdown."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readExportResource,
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

func (s *Server) saveWord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card := models.WordCard{
		Word:      strings.TrimSpace(word),
		Meaning:   req.GetString("meaning", ""),
		Mnemonic:  req.GetString("mnemonic", ""),
		Context:   req.GetString("context", ""),
		SourceURL: req.GetString("source_url", ""),
		DateAdded: models.Timestamp(time.Now()),
	}
	if card.Meaning == "" {
		if res, err := s.svc.Define(ctx, word); err == nil {
			card.Meaning = res.Definition
		}
	}

	out, err := s.svc.Save(ctx, card)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved (%s): %s", out, card.Word)), nil
}

func (s *Server) listWords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cards, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cards) == 0 {
		return mcp.NewToolResultText("vault is empty"), nil
	}
	out, _ := json.MarshalIndent(cards, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchWords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) defineWord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Define(ctx, word)
	if err != nil {
		return mcp.NewToolResultError("could not fetch definition: " + err.Error()), nil
	}
	if res.Definition == "" {
		return mcp.NewToolResultText(fmt.Sprintf("%s: %s", word, res.Status)), nil
	}
	if res.PartOfSpeech != "" {
		return mcp.NewToolResultText(fmt.Sprintf("%s (%s): %s", word, res.PartOfSpeech, res.Definition)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", word, res.Definition)), nil
}

func (s *Server) exportMarkdown(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exp, err := s.svc.ExportMarkdown(ctx)
	if errors.Is(err, apperr.ErrEmptyVault) {
		return mcp.NewToolResultError("No words to export"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(exp.Data)), nil
}

func (s *Server) importMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := loadSource(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Import(ctx, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported %d cards", n)), nil
}

func (s *Server) getCardFormat(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriCardFormat,
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}

func (s *Server) readExportResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text := ""
	exp, err := s.svc.ExportMarkdown(ctx)
	switch {
	case err == nil:
		text = string(exp.Data)
	case !errors.Is(err, apperr.ErrEmptyVault):
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriExport,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}
