package triage_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/google"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/instrumentation"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/server"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/tools/common"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/triage"
)

// RegisterTriageTools registers the triage tool with the MCP server.
// Triage labels and marks messages, so it is a write-capable tool and is
// skipped when readOnly is true.
func RegisterTriageTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if readOnly {
		return nil
	}

	triageTool := mcp.NewTool("triage-emails",
		mcp.WithDescription("Classify unread inbox emails with the local model, mark them as read and label them. Returns one outcome record per processed email."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)
	s.AddTool(triageTool, common.InstrumentedToolHandlerWithService(
		"triage-emails", instrumentation.ServiceOracle, instrumentation.OperationClassify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTriageEmails(ctx, request, sc)
		}))

	return nil
}

func handleTriageEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	client := sc.GmailClientForAccount(account)
	if client == nil {
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account)), nil
	}

	classifier := sc.Classifier()
	if classifier == nil {
		return mcp.NewToolResultError("no classifier configured: start the server with an Ollama endpoint"), nil
	}

	pipeline := triage.NewPipeline(client, classifier, sc.Logger())
	pipeline.SetMetrics(sc.Metrics())

	outcomes, err := pipeline.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Triage run failed: %v", err)), nil
	}

	data, err := json.Marshal(outcomes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode triage outcomes: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
