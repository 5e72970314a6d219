// Package gmail_tools exposes the mailbox operations as MCP tools:
// sending, reading, trashing, labeling and opening messages, plus the
// unread-message listing the triage workflow starts from.
//
// Write-capable tools (send-email, trash-email, label-email) are only
// registered when the server runs with write access enabled. Handlers
// report failures as tool error results rather than Go errors, so a
// failed mailbox call never tears down the protocol session.
package gmail_tools
