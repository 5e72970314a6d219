package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/browser"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/gmail"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/google"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/instrumentation"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/message"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/server"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/tools/common"
)

// RegisterGmailTools registers the mailbox tools with the MCP server.
// Write-capable tools (send-email, trash-email, label-email) are skipped
// when readOnly is true.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getUnreadTool := mcp.NewTool("get-unread-emails",
		mcp.WithDescription("Retrieve unread emails from the inbox"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)
	s.AddTool(getUnreadTool, common.InstrumentedToolHandlerWithService(
		"get-unread-emails", instrumentation.ServiceGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetUnreadEmails(ctx, request, sc)
		}))

	readEmailTool := mcp.NewTool("read-email",
		mcp.WithDescription("Retrieves given email content and marks it as read"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("Email ID"),
		),
	)
	s.AddTool(readEmailTool, common.InstrumentedToolHandlerWithService(
		"read-email", instrumentation.ServiceGmail, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadEmail(ctx, request, sc)
		}))

	markReadTool := mcp.NewTool("mark-email-as-read",
		mcp.WithDescription("Marks given email as read"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("Email ID"),
		),
	)
	s.AddTool(markReadTool, common.InstrumentedToolHandlerWithService(
		"mark-email-as-read", instrumentation.ServiceGmail, instrumentation.OperationModify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMarkEmailAsRead(ctx, request, sc)
		}))

	openEmailTool := mcp.NewTool("open-email",
		mcp.WithDescription("Open email in browser"),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("Email ID"),
		),
	)
	s.AddTool(openEmailTool, common.InstrumentedToolHandler("open-email", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleOpenEmail(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	sendEmailTool := mcp.NewTool("send-email",
		mcp.WithDescription("Sends email to recipient. Do not use if user only asked to draft email. Drafts must be approved before sending."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("recipient_id",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Email content text"),
		),
	)
	s.AddTool(sendEmailTool, common.InstrumentedToolHandlerWithService(
		"send-email", instrumentation.ServiceGmail, instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendEmail(ctx, request, sc)
		}))

	trashEmailTool := mcp.NewTool("trash-email",
		mcp.WithDescription("Moves email to trash. Confirm before moving email to trash."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("Email ID"),
		),
	)
	s.AddTool(trashEmailTool, common.InstrumentedToolHandlerWithService(
		"trash-email", instrumentation.ServiceGmail, instrumentation.OperationTrash, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTrashEmail(ctx, request, sc)
		}))

	labelEmailTool := mcp.NewTool("label-email",
		mcp.WithDescription("Label email with given label"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("Email ID"),
		),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Label to apply"),
		),
	)
	s.AddTool(labelEmailTool, common.InstrumentedToolHandlerWithService(
		"label-email", instrumentation.ServiceGmail, instrumentation.OperationModify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLabelEmail(ctx, request, sc)
		}))

	return nil
}

// clientForAccount resolves the Gmail client for the requested account.
// Returns a tool error result (not a Go error) when the account is not
// authenticated, so the assistant sees the authorization instructions.
func clientForAccount(sc *server.ServerContext, account string) (*gmail.Client, *mcp.CallToolResult) {
	client := sc.GmailClientForAccount(account)
	if client == nil {
		return nil, mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account))
	}
	return client, nil
}

func emailIDFromArgs(args map[string]interface{}) (string, *mcp.CallToolResult) {
	id, ok := args["email_id"].(string)
	if !ok || id == "" {
		return "", mcp.NewToolResultError("email_id is required")
	}
	return id, nil
}

// extractSubject pulls a "Subject:" first line out of the message body.
// Drafting prompts instruct the model to produce bodies in this shape, so
// a leading subject line overrides the subject argument.
func extractSubject(subject, body string) (string, string) {
	lines := strings.Split(body, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "Subject:") {
		subject = strings.TrimSpace(lines[0][len("Subject:"):])
		body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	return subject, body
}

func handleSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	recipient, ok := args["recipient_id"].(string)
	if !ok || recipient == "" {
		return mcp.NewToolResultError("recipient_id is required"), nil
	}
	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	body, ok := args["message"].(string)
	if !ok || body == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	subject, body = extractSubject(subject, body)

	client, errResult := clientForAccount(sc, account)
	if errResult != nil {
		return errResult, nil
	}

	messageID, err := client.SendEmail(ctx, &gmail.EmailMessage{
		To:      []string{recipient},
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Email sent successfully. Message ID: %s", messageID)), nil
}

func handleGetUnreadEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	client, errResult := clientForAccount(sc, account)
	if errResult != nil {
		return errResult, nil
	}

	ids, err := client.ListUnread(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list unread emails: %v", err)), nil
	}

	type unreadEmail struct {
		ID string `json:"id"`
	}
	unread := make([]unreadEmail, 0, len(ids))
	for _, id := range ids {
		unread = append(unread, unreadEmail{ID: id})
	}

	data, err := json.Marshal(unread)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode unread emails: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func handleReadEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	id, errResult := emailIDFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}

	client, clientErr := clientForAccount(sc, account)
	if clientErr != nil {
		return clientErr, nil
	}

	raw, err := client.FetchRaw(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch email: %v", err)), nil
	}

	msg, err := message.Decode(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to decode email: %v", err)), nil
	}

	// Reading implies marking as read; a failure here still returns the
	// decoded content.
	if err := client.MarkAsRead(ctx, id); err != nil {
		sc.Logger().Warn("failed to mark email as read after reading", "email_id", id, "error", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode email: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func handleTrashEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	id, errResult := emailIDFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}

	client, clientErr := clientForAccount(sc, account)
	if clientErr != nil {
		return clientErr, nil
	}

	if err := client.Trash(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to trash email: %v", err)), nil
	}

	return mcp.NewToolResultText("Email moved to trash successfully."), nil
}

func handleMarkEmailAsRead(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	id, errResult := emailIDFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}

	client, clientErr := clientForAccount(sc, account)
	if clientErr != nil {
		return clientErr, nil
	}

	if err := client.MarkAsRead(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to mark email as read: %v", err)), nil
	}

	return mcp.NewToolResultText("Email marked as read."), nil
}

func handleLabelEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	id, errResult := emailIDFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}

	label, ok := args["label"].(string)
	if !ok || label == "" {
		return mcp.NewToolResultError("label is required"), nil
	}

	client, clientErr := clientForAccount(sc, account)
	if clientErr != nil {
		return clientErr, nil
	}

	labelID, err := client.ResolveLabel(ctx, label)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to label email: %v", err)), nil
	}

	if err := client.ApplyLabel(ctx, id, labelID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to label email: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Email %s successfully labeled with %q", id, label)), nil
}

func handleOpenEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, errResult := emailIDFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}

	if err := browser.OpenURL(gmail.WebLink(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to open email in browser: %v", err)), nil
	}

	return mcp.NewToolResultText("Email opened in browser successfully."), nil
}
