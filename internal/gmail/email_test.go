package gmail

import (
	"context"
	"mime"
	"strings"
	"testing"
)

func TestSendEmailValidation(t *testing.T) {
	tests := []struct {
		name        string
		msg         *EmailMessage
		errContains string
	}{
		{
			name:        "missing recipients",
			msg:         &EmailMessage{Subject: "Hi", Body: "Hello"},
			errContains: "at least one recipient is required",
		},
		{
			name:        "missing subject",
			msg:         &EmailMessage{To: []string{"a@example.com"}, Body: "Hello"},
			errContains: "subject is required",
		},
		{
			name:        "missing body",
			msg:         &EmailMessage{To: []string{"a@example.com"}, Subject: "Hi"},
			errContains: "body is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Validation runs before any API call, so a zero client suffices
			c := &Client{}

			_, err := c.SendEmail(context.Background(), tt.msg)
			if err == nil {
				t.Fatal("SendEmail() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("SendEmail() error = %v, should contain %v", err, tt.errContains)
			}
		})
	}
}

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name  string
		input string
		// For ASCII input the string must pass through unchanged; for
		// non-ASCII it must be RFC 2047 encoded.
		wantEncoded bool
	}{
		{"plain ascii", "Hello World", false},
		{"ascii with punctuation", "Re: [proposal] v2!", false},
		{"empty string", "", false},
		{"german umlauts", "Grüße aus München", true},
		{"accented characters", "Café résumé", true},
		{"non-latin script", "こんにちは", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeRFC2047(tt.input)

			if !tt.wantEncoded {
				if got != tt.input {
					t.Errorf("encodeRFC2047(%q) = %q, want unchanged", tt.input, got)
				}
				return
			}

			if !strings.HasPrefix(got, "=?UTF-8?") {
				t.Errorf("encodeRFC2047(%q) = %q, want RFC 2047 encoded word", tt.input, got)
			}
		})
	}
}

func TestEncodeRFC2047Roundtrip(t *testing.T) {
	inputs := []string{
		"Grüße aus München",
		"Besprechung über Änderungen",
		"Weiß & Größe",
	}

	dec := new(mime.WordDecoder)
	for _, input := range inputs {
		encoded := encodeRFC2047(input)
		decoded, err := dec.DecodeHeader(encoded)
		if err != nil {
			t.Fatalf("DecodeHeader(%q) error: %v", encoded, err)
		}
		if decoded != input {
			t.Errorf("roundtrip of %q = %q", input, decoded)
		}
	}
}
