// Package gmail provides a capability-scoped client for the Gmail API.
//
// The client exposes exactly the mailbox operations the MCP tools and the
// triage pipeline consume:
//   - ListUnread: the current unread set (first page only)
//   - FetchRaw: raw RFC 2822 message bytes
//   - MarkAsRead, ApplyLabel, Trash: message state changes
//   - ResolveLabel / Labels: label name to id mapping
//   - SendEmail: RFC 2822 build with RFC 2047 subject encoding
//   - WebLink: the browser URL for a message
//
// Authentication uses the per-account file token from the google package.
// Clients are constructed per account via NewClientForAccount.
package gmail
