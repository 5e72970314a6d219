package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// emailAdminPrompt frames the assistant as a mailbox administrator with
// the registered tools. Destructive actions require user confirmation.
const emailAdminPrompt = `You are an email administrator.
You can draft, edit, read, trash, open, and send emails.
You've been given access to a specific gmail account.
You have the following tools available:
- Send an email (send-email)
- Retrieve unread emails (get-unread-emails)
- Read email content (read-email)
- Trash email (trash-email)
- Open email in browser (open-email)
Never send an email draft or trash an email unless the user confirms first.
Always ask for approval if not already given.`

// RegisterPrompts registers the email assistant prompts with the MCP server.
func RegisterPrompts(s *mcpserver.MCPServer) error {
	manageEmail := mcp.NewPrompt("manage-email",
		mcp.WithPromptDescription("Act like an email administrator"),
	)
	s.AddPrompt(manageEmail, handleManageEmail)

	draftEmail := mcp.NewPrompt("draft-email",
		mcp.WithPromptDescription("Draft an email with content and recipient"),
		mcp.WithArgument("content",
			mcp.ArgumentDescription("What the email is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("recipient",
			mcp.ArgumentDescription("Who should the email be addressed to"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("recipient_email",
			mcp.ArgumentDescription("Recipient's email address"),
			mcp.RequiredArgument(),
		),
	)
	s.AddPrompt(draftEmail, handleDraftEmail)

	editDraft := mcp.NewPrompt("edit-draft",
		mcp.WithPromptDescription("Edit the existing email draft"),
		mcp.WithArgument("changes",
			mcp.ArgumentDescription("What changes should be made to the draft"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("current_draft",
			mcp.ArgumentDescription("The current draft to edit"),
			mcp.RequiredArgument(),
		),
	)
	s.AddPrompt(editDraft, handleEditDraft)

	return nil
}

func handleManageEmail(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return mcp.NewGetPromptResult(
		"Act like an email administrator",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(emailAdminPrompt)),
		},
	), nil
}

func handleDraftEmail(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	content := request.Params.Arguments["content"]
	recipient := request.Params.Arguments["recipient"]
	recipientEmail := request.Params.Arguments["recipient_email"]

	text := fmt.Sprintf(`Please draft an email about %s for %s (%s).
Include a subject line starting with 'Subject:' on the first line.
Do not send the email yet, just draft it and ask the user for their thoughts.`,
		content, recipient, recipientEmail)

	return mcp.NewGetPromptResult(
		"Draft an email",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}

func handleEditDraft(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	changes := request.Params.Arguments["changes"]
	currentDraft := request.Params.Arguments["current_draft"]

	text := fmt.Sprintf(`Please revise the current email draft:
%s

Requested changes:
%s

Please provide the updated draft.`, currentDraft, changes)

	return mcp.NewGetPromptResult(
		"Edit the email draft",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}
