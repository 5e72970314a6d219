package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/server"
)

func TestStringFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		val      string
		envKey   string
		envVal   string
		expected string
	}{
		{
			name:     "flag value wins over env",
			val:      "http://flag:11434",
			envKey:   "TEST_OLLAMA_URL",
			envVal:   "http://env:11434",
			expected: "http://flag:11434",
		},
		{
			name:     "env used when flag empty",
			val:      "",
			envKey:   "TEST_OLLAMA_URL",
			envVal:   "http://env:11434",
			expected: "http://env:11434",
		},
		{
			name:     "empty when both unset",
			val:      "",
			envKey:   "TEST_OLLAMA_URL",
			envVal:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				t.Setenv(tt.envKey, tt.envVal)
			}
			if got := stringFromEnv(tt.val, tt.envKey); got != tt.expected {
				t.Errorf("stringFromEnv(%q, %q) = %q, want %q", tt.val, tt.envKey, got, tt.expected)
			}
		})
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{name: "triage-emails", expected: "Triage Tools"},
		{name: "send-email", expected: "Mailbox Tools"},
		{name: "get-unread-emails", expected: "Mailbox Tools"},
		{name: "mark-email-as-read", expected: "Mailbox Tools"},
		{name: "google_get_auth_url", expected: "Authentication Tools"},
		{name: "google_save_auth_code", expected: "Authentication Tools"},
		{name: "something_else", expected: "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getCategoryFromToolName(tt.name); got != tt.expected {
				t.Errorf("getCategoryFromToolName(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestGenerateToolsMarkdownContainsToolNames(t *testing.T) {
	ctx := context.Background()
	serverContext, err := server.NewServerContext(ctx, nil)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	defer serverContext.Shutdown()

	mcpSrv := mcpserver.NewMCPServer("gmail-mcp-server", "test",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
	)
	if err := registerAll(mcpSrv, serverContext, false); err != nil {
		t.Fatalf("failed to register tools: %v", err)
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	markdown := generateToolsMarkdown(tools)

	for _, tool := range []string{
		"send-email",
		"get-unread-emails",
		"read-email",
		"trash-email",
		"mark-email-as-read",
		"label-email",
		"open-email",
		"triage-emails",
	} {
		if !strings.Contains(markdown, tool) {
			t.Errorf("generated docs missing tool %q", tool)
		}
	}
}
