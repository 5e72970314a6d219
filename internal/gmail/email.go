package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// EmailMessage represents an email to be sent
type EmailMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	IsHTML  bool
}

// encodeRFC2047 encodes a string for use in email headers according to RFC 2047
// This is necessary for non-ASCII characters (like German umlauts) in subjects
func encodeRFC2047(s string) string {
	// Check if the string contains only ASCII characters
	needsEncoding := false
	for _, r := range s {
		if r > 127 {
			needsEncoding = true
			break
		}
	}

	// If it's all ASCII, return as-is
	if !needsEncoding {
		return s
	}

	// Use Go's mime package which implements RFC 2047 encoding
	return mime.BEncoding.Encode("UTF-8", s)
}

// GetSignature fetches the user's Gmail signature (primary send-as address)
// The signature is cached after the first fetch
func (c *Client) GetSignature(ctx context.Context) (string, error) {
	// Return cached signature if available
	if c.signature != "" {
		return c.signature, nil
	}

	// Fetch send-as settings to get the signature
	sendAs, err := c.svc.Settings.SendAs.Get("me", "me").Context(ctx).Do()
	if err != nil {
		// If we can't fetch the signature, return empty string (not an error)
		// This allows emails to be sent even if signature fetching fails
		return "", nil
	}

	// Cache the signature
	if sendAs.Signature != "" {
		c.signature = sendAs.Signature
	}

	return c.signature, nil
}

// appendSignature adds the user's signature to the email body
func (c *Client) appendSignature(ctx context.Context, body string, isHTML bool) string {
	signature, err := c.GetSignature(ctx)
	if err != nil || signature == "" {
		// No signature or error fetching it, return body as-is
		return body
	}

	// Append signature with appropriate formatting
	if isHTML {
		return body + "<br><br>-- <br>" + signature
	}

	return body + "\n\n-- \n" + signature
}

// SendEmail sends an email through the Gmail API and returns the sent
// message id.
func (c *Client) SendEmail(ctx context.Context, msg *EmailMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if msg.Body == "" {
		return "", fmt.Errorf("body is required")
	}

	// Build the email message in RFC 2822 format
	var emailBuilder strings.Builder

	emailBuilder.WriteString("To: ")
	emailBuilder.WriteString(strings.Join(msg.To, ", "))
	emailBuilder.WriteString("\r\n")

	if len(msg.Cc) > 0 {
		emailBuilder.WriteString("Cc: ")
		emailBuilder.WriteString(strings.Join(msg.Cc, ", "))
		emailBuilder.WriteString("\r\n")
	}

	if len(msg.Bcc) > 0 {
		emailBuilder.WriteString("Bcc: ")
		emailBuilder.WriteString(strings.Join(msg.Bcc, ", "))
		emailBuilder.WriteString("\r\n")
	}

	// Encode the subject for non-ASCII characters like umlauts
	emailBuilder.WriteString("Subject: ")
	emailBuilder.WriteString(encodeRFC2047(msg.Subject))
	emailBuilder.WriteString("\r\n")

	if msg.IsHTML {
		emailBuilder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		emailBuilder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	emailBuilder.WriteString("MIME-Version: 1.0\r\n")
	emailBuilder.WriteString("\r\n")

	// Add body with signature
	bodyWithSignature := c.appendSignature(ctx, msg.Body, msg.IsHTML)
	emailBuilder.WriteString(bodyWithSignature)

	// Encode the message in base64url format
	rawMessage := base64.URLEncoding.EncodeToString([]byte(emailBuilder.String()))

	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw: rawMessage,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}
