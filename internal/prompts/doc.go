// Package prompts registers the email assistant prompts: the mailbox
// administrator system prompt plus the draft-email and edit-draft
// templates that shape bodies with a leading "Subject:" line, which the
// send-email tool extracts.
package prompts
