package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

const (
	// MaxContentWords caps the normalized content at 10,000 whitespace
	// delimited words to keep classification request payloads small.
	MaxContentWords = 10000

	// NoTextSentinel is the content value used when a message has no
	// usable text body. Classification still proceeds; the sentinel keeps
	// the degraded case distinguishable from an empty message.
	NoTextSentinel = "THIS IS SPAM"
)

// NormalizedMessage is the decoded form of a single mailbox message.
// It is derived once per message per triage pass and never persisted.
type NormalizedMessage struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	To      string `json:"to"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// DecodeError indicates a message whose raw bytes could not be parsed.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode message: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses raw RFC 2822 message bytes into a NormalizedMessage.
func Decode(raw []byte) (*NormalizedMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Reason: "invalid RFC 2822 message", Err: err}
	}

	dec := &mime.WordDecoder{CharsetReader: charsetReader}

	body := extractTextBody(mailHeader(msg.Header), msg.Body, false)
	if body == "" {
		body = NoTextSentinel
	}

	return &NormalizedMessage{
		Subject: decodeHeader(dec, msg.Header.Get("Subject")),
		From:    decodeHeader(dec, msg.Header.Get("From")),
		To:      decodeHeader(dec, msg.Header.Get("To")),
		Date:    msg.Header.Get("Date"),
		Content: TruncateWords(body, MaxContentWords),
	}, nil
}

// CountWords returns the number of whitespace-delimited words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// TruncateWords caps text at max whitespace-delimited words. Content
// within the cap is returned unchanged; overflowing content is rebuilt
// from the first max tokens with spacing collapsed to single spaces.
func TruncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

// decodeHeader decodes RFC 2047 encoded-word headers. A header that fails
// to decode is returned in its raw form rather than aborting the message.
func decodeHeader(dec *mime.WordDecoder, value string) string {
	if value == "" {
		return ""
	}
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// headerGetter is the common surface of net/mail and net/textproto headers.
type headerGetter interface {
	Get(key string) string
}

type mailHeader mail.Header

func (h mailHeader) Get(key string) string { return mail.Header(h).Get(key) }

// extractTextBody walks a message entity and returns its body text. Inside a
// multipart walk (plainOnly) only text/plain parts contribute; a non-multipart
// message contributes its sole body whatever its declared type, so an
// HTML-only message still reaches the oracle as its HTML source. It returns
// "" when no usable text is found.
func extractTextBody(header headerGetter, body io.Reader, plainOnly bool) string {
	ctype, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		ctype = "text/plain"
	}

	if strings.HasPrefix(ctype, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				return ""
			}
			if text := extractTextBody(partHeader(part.Header), part, true); text != "" {
				return text
			}
		}
	}

	// Attachments never contribute body text.
	if disp, _, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && disp == "attachment" {
		return ""
	}

	if plainOnly && ctype != "text/plain" {
		return ""
	}

	reader := decodeTransferEncoding(header.Get("Content-Transfer-Encoding"), body)
	data, err := io.ReadAll(reader)
	if err != nil || len(data) == 0 {
		return ""
	}

	return decodeCharset(data, params["charset"])
}

type partHeader textproto.MIMEHeader

func (h partHeader) Get(key string) string { return textproto.MIMEHeader(h).Get(key) }

func decodeTransferEncoding(cte string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(cte)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		// 7bit, 8bit, binary: no wrapper needed
		return body
	}
}

// decodeCharset converts body bytes to a string using the declared charset.
// Unknown or missing charsets fall back to UTF-8; bytes that are not valid
// UTF-8 get a permissive Latin-1 decode that replaces rather than fails.
func decodeCharset(data []byte, charset string) string {
	if charset != "" {
		if enc, err := ianaindex.IANA.Encoding(strings.ToLower(charset)); err == nil && enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(decoded)
			}
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}

	// Latin-1 maps every byte, so this decode cannot fail.
	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(decoded)
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.ToLower(charset))
	if err != nil || enc == nil {
		return input, nil
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
