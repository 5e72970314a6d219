package triage_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/server"
)

func TestRegisterTriageTools(t *testing.T) {
	ctx := context.Background()
	serverContext, err := server.NewServerContext(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to create server context: %v", err)
	}
	defer serverContext.Shutdown()

	mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	if err := RegisterTriageTools(mcpSrv, serverContext, false); err != nil {
		t.Errorf("RegisterTriageTools() error = %v", err)
	}

	// Read-only servers never expose the triage tool.
	if err := RegisterTriageTools(mcpSrv, serverContext, true); err != nil {
		t.Errorf("RegisterTriageTools() readOnly error = %v", err)
	}
}

func TestHandleTriageEmailsWithoutClient(t *testing.T) {
	ctx := context.Background()
	serverContext, err := server.NewServerContext(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to create server context: %v", err)
	}
	defer serverContext.Shutdown()

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "triage-emails",
			Arguments: map[string]interface{}{"account": "nosuchaccount"},
		},
	}

	result, err := handleTriageEmails(ctx, request, serverContext)
	if err != nil {
		t.Fatalf("handleTriageEmails() error = %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result when account is not authenticated")
	}
}
