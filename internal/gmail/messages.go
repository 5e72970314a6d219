package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	// unreadQuery selects the messages a triage run looks at.
	unreadQuery = "in:inbox is:unread"

	// maxUnreadResults bounds one run to a single result page.
	maxUnreadResults = 20

	labelUnread = "UNREAD"
)

// ListUnread returns the message ids of the current unread set. Only the
// first result page is fetched; a busier inbox is handled across runs.
func (c *Client) ListUnread(ctx context.Context) ([]string, error) {
	res, err := c.svc.Messages.List("me").
		Q(unreadQuery).
		MaxResults(maxUnreadResults).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// FetchRaw returns the raw RFC 2822 bytes of a message.
func (c *Client) FetchRaw(ctx context.Context, id string) ([]byte, error) {
	msg, err := c.svc.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	raw, err := decodeRaw(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw message %s: %w", id, err)
	}
	return raw, nil
}

// decodeRaw decodes the Raw field of a Gmail message. The API documents
// base64url but some payloads arrive in standard base64.
func decodeRaw(s string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// MarkAsRead removes the UNREAD label from a message. Marking an already
// read message is not an error on the Gmail side.
func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	_, err := c.svc.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{labelUnread},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to mark message %s as read: %w", id, err)
	}
	return nil
}

// Labels returns all labels of the mailbox.
func (c *Client) Labels(ctx context.Context) ([]*gmail.Label, error) {
	res, err := c.svc.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return res.Labels, nil
}

// ResolveLabel maps a label name to its id. Exact match wins; a
// case-insensitive match is accepted as fallback.
func (c *Client) ResolveLabel(ctx context.Context, name string) (string, error) {
	labels, err := c.Labels(ctx)
	if err != nil {
		return "", err
	}

	var folded string
	for _, l := range labels {
		if l.Name == name {
			return l.Id, nil
		}
		if folded == "" && strings.EqualFold(l.Name, name) {
			folded = l.Id
		}
	}
	if folded != "" {
		return folded, nil
	}
	return "", fmt.Errorf("label %q not found", name)
}

// ApplyLabel attaches a label to a message by label id.
func (c *Client) ApplyLabel(ctx context.Context, id, labelID string) error {
	_, err := c.svc.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to apply label to message %s: %w", id, err)
	}
	return nil
}

// Trash moves a message to the trash.
func (c *Client) Trash(ctx context.Context, id string) error {
	_, err := c.svc.Messages.Trash("me", id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to trash message %s: %w", id, err)
	}
	return nil
}

// WebLink returns the Gmail web UI URL for a message.
func WebLink(id string) string {
	return "https://mail.google.com/#all/" + id
}
