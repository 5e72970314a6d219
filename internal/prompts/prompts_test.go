package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func promptRequest(name string, args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	if result == nil || len(result.Messages) != 1 {
		t.Fatalf("expected one prompt message, got %+v", result)
	}
	content, ok := result.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Messages[0].Content)
	}
	return content.Text
}

func TestRegisterPrompts(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
		mcpserver.WithPromptCapabilities(true),
	)

	if err := RegisterPrompts(mcpSrv); err != nil {
		t.Errorf("RegisterPrompts() error = %v", err)
	}
}

func TestHandleManageEmail(t *testing.T) {
	result, err := handleManageEmail(context.Background(), promptRequest("manage-email", nil))
	if err != nil {
		t.Fatalf("handleManageEmail() error = %v", err)
	}

	text := promptText(t, result)
	for _, want := range []string{"email administrator", "send-email", "get-unread-emails", "trash-email"} {
		if !strings.Contains(text, want) {
			t.Errorf("admin prompt missing %q", want)
		}
	}
}

func TestHandleDraftEmail(t *testing.T) {
	result, err := handleDraftEmail(context.Background(), promptRequest("draft-email", map[string]string{
		"content":         "the quarterly numbers",
		"recipient":       "Alice",
		"recipient_email": "alice@example.com",
	}))
	if err != nil {
		t.Fatalf("handleDraftEmail() error = %v", err)
	}

	text := promptText(t, result)
	for _, want := range []string{"the quarterly numbers", "Alice", "alice@example.com", "Subject:"} {
		if !strings.Contains(text, want) {
			t.Errorf("draft prompt missing %q", want)
		}
	}
	if !strings.Contains(text, "Do not send the email yet") {
		t.Error("draft prompt must not instruct sending")
	}
}

func TestHandleEditDraft(t *testing.T) {
	result, err := handleEditDraft(context.Background(), promptRequest("edit-draft", map[string]string{
		"changes":       "make it shorter",
		"current_draft": "Subject: Hello\nLong body",
	}))
	if err != nil {
		t.Fatalf("handleEditDraft() error = %v", err)
	}

	text := promptText(t, result)
	if !strings.Contains(text, "make it shorter") || !strings.Contains(text, "Subject: Hello") {
		t.Errorf("edit prompt missing arguments: %q", text)
	}
}
