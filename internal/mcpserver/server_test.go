package mcpserver

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/wordvault/internal/cardstore"
	"github.com/starford/wordvault/internal/models"
	"github.com/starford/wordvault/internal/storage"
	"github.com/starford/wordvault/internal/testutil"
	"github.com/starford/wordvault/internal/vault"
	"github.com/starford/wordvault/internal/wordservice"
)

func testServer(t *testing.T) (*Server, *storage.Gateway) {
	t.Helper()
	logger := testutil.Logger()
	_, gw := testutil.TestStore(t)
	db := testutil.TestDB(t)

	cards := cardstore.New(gw, nil, logger)
	viewer := vault.New(cards, logger, vault.WithLocation(time.UTC))
	definer := testutil.Definer{Words: map[string]string{"laconic": "using very few words"}}
	svc := wordservice.New(cards, viewer, db, gw, definer, logger)
	return New(svc), gw
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "save_word":
		result, err = srv.saveWord(ctx, req)
	case "list_words":
		result, err = srv.listWords(ctx, req)
	case "search_words":
		result, err = srv.searchWords(ctx, req)
	case "define_word":
		result, err = srv.defineWord(ctx, req)
	case "export_markdown":
		result, err = srv.exportMarkdown(ctx, req)
	case "import_markdown":
		result, err = srv.importMarkdown(ctx, req)
	case "get_card_format":
		result, err = srv.getCardFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveWord_FillsMeaning(t *testing.T) {
	srv, gw := testServer(t)

	r := callTool(t, srv, "save_word", map[string]interface{}{
		"word":     " laconic ",
		"mnemonic": "lacks words",
	})
	if text := resultText(r); text != "saved (local): laconic" {
		t.Errorf("save result = %q", text)
	}

	cards, err := gw.Words()
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(cards))
	}
	if cards[0].Meaning != "using very few words" || cards[0].Mnemonic != "lacks words" || cards[0].DateAdded == "" {
		t.Errorf("card = %+v", cards[0])
	}
}

func TestSaveWord_MissingWord(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "save_word", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without word")
	}
}

func TestListAndSearch(t *testing.T) {
	srv, gw := testServer(t)

	if text := resultText(callTool(t, srv, "list_words", map[string]interface{}{})); text != "vault is empty" {
		t.Errorf("empty list = %q", text)
	}

	_ = gw.AppendWord(models.WordCard{Word: "alpha", Meaning: "first"})
	_ = gw.AppendWord(models.WordCard{Word: "beta"})

	text := resultText(callTool(t, srv, "list_words", map[string]interface{}{}))
	if !strings.Contains(text, "alpha") || !strings.Contains(text, "beta") {
		t.Errorf("list = %q", text)
	}

	text = resultText(callTool(t, srv, "search_words", map[string]interface{}{"query": "alpha"}))
	if !strings.Contains(text, `"alpha"`) || strings.Contains(text, `"beta"`) {
		t.Errorf("search = %q", text)
	}
}

func TestDefineWord(t *testing.T) {
	srv, _ := testServer(t)
	if text := resultText(callTool(t, srv, "define_word", map[string]interface{}{"word": "laconic"})); text != "laconic: using very few words" {
		t.Errorf("define = %q", text)
	}
	if text := resultText(callTool(t, srv, "define_word", map[string]interface{}{"word": "zzz"})); text != "zzz: not_found" {
		t.Errorf("define missing = %q", text)
	}
}

func TestExportImport(t *testing.T) {
	srv, gw := testServer(t)

	r := callTool(t, srv, "export_markdown", map[string]interface{}{})
	if !r.IsError || resultText(r) != "No words to export" {
		t.Errorf("empty export = %q", resultText(r))
	}

	_ = gw.AppendWord(models.WordCard{Word: "gamma", Mnemonic: "third", DateAdded: "2024-03-01"})
	doc := resultText(callTool(t, srv, "export_markdown", map[string]interface{}{}))
	if !strings.Contains(doc, "## gamma") {
		t.Fatalf("export = %q", doc)
	}

	other, otherGW := testServer(t)
	r = callTool(t, other, "import_markdown", map[string]interface{}{"source": doc})
	if text := resultText(r); text != "imported 1 cards" {
		t.Fatalf("import = %q", text)
	}

	encoded := "data:text/markdown;base64," + base64.StdEncoding.EncodeToString([]byte(doc))
	r = callTool(t, other, "import_markdown", map[string]interface{}{"source": encoded})
	if text := resultText(r); text != "imported 1 cards" {
		t.Fatalf("data uri import = %q", text)
	}

	cards, _ := otherGW.Words()
	if len(cards) != 2 || cards[0].Mnemonic != "third" || cards[0].DateAdded != "2024-03-01" {
		t.Errorf("imported = %+v", cards)
	}
}

func TestImport_Rejects(t *testing.T) {
	srv, _ := testServer(t)
	for _, src := range []string{
		"no sections here",
		"data:image/png;base64,AAAA",
		"http://127.0.0.1/export.md",
	} {
		if r := callTool(t, srv, "import_markdown", map[string]interface{}{"source": src}); !r.IsError {
			t.Errorf("source %q should be rejected", src)
		}
	}
}

func TestCardFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	if text := resultText(callTool(t, srv, "get_card_format", map[string]interface{}{})); text != CardFormatContract {
		t.Error("get_card_format should return the contract")
	}

	contents, err := srv.readCardFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != uriCardFormat {
		t.Errorf("resource = %+v", contents[0])
	}

	contents, err = srv.readExportResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if tc := contents[0].(mcp.TextResourceContents); tc.Text != "" {
		t.Errorf("empty vault export resource = %q", tc.Text)
	}
}
