package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSimpleMessage(t *testing.T) {
	raw := []byte("From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Hello\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
		"\r\n" +
		"This is the body.\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "Hello", msg.Subject)
	assert.Equal(t, "alice@example.com", msg.From)
	assert.Equal(t, "bob@example.com", msg.To)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", msg.Date)
	assert.Contains(t, msg.Content, "This is the body.")
}

func TestDecodeEncodedWordSubject(t *testing.T) {
	raw := []byte("From: alice@example.com\r\n" +
		"Subject: =?UTF-8?B?R3LDvMOfZQ==?=\r\n" +
		"\r\n" +
		"body\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "Grüße", msg.Subject)
}

func TestDecodeMalformedEncodedWordFallsBackToRaw(t *testing.T) {
	// Broken base64 in the encoded word must not abort the message.
	raw := []byte("Subject: =?UTF-8?B?%%%invalid?=\r\n" +
		"\r\n" +
		"body\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "=?UTF-8?B?%%%invalid?=", msg.Subject)
}

func TestDecodeMultipartPrefersPlainText(t *testing.T) {
	raw := []byte("From: alice@example.com\r\n" +
		"Subject: multipart\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html part</p>\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain part\r\n" +
		"--BOUNDARY--\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "plain part")
	assert.NotContains(t, msg.Content, "html part")
}

func TestDecodeHTMLOnlyMessageKeepsBody(t *testing.T) {
	// A single-part message contributes its sole body whatever the type;
	// the oracle prompt handles HTML content itself.
	raw := []byte("From: ads@example.com\r\n" +
		"Subject: offer\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<html><body>Buy now</body></html>\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "<html><body>Buy now</body></html>")
	assert.NotEqual(t, NoTextSentinel, msg.Content)
}

func TestDecodeMultipartWithoutPlainTextUsesSentinel(t *testing.T) {
	raw := []byte("From: ads@example.com\r\n" +
		"Subject: offer\r\n" +
		"Content-Type: multipart/mixed; boundary=BOUNDARY\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html only</p>\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=offer.pdf\r\n" +
		"\r\n" +
		"%PDF-1.4\r\n" +
		"--BOUNDARY--\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, NoTextSentinel, msg.Content)
}

func TestDecodeEmptyBodyUsesSentinel(t *testing.T) {
	raw := []byte("Subject: empty\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, NoTextSentinel, msg.Content)
}

func TestDecodeBase64Body(t *testing.T) {
	raw := []byte("Subject: encoded\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"aGVsbG8gd29ybGQ=\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello world", msg.Content)
}

func TestDecodeQuotedPrintableBody(t *testing.T) {
	raw := []byte("Subject: qp\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"caf=C3=A9\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "café")
}

func TestDecodeDeclaredCharset(t *testing.T) {
	// "café" in ISO-8859-1: the é is byte 0xE9.
	raw := []byte("Subject: latin\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"\r\n" +
		"caf\xe9\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "café")
}

func TestDecodeInvalidUTF8NeverFails(t *testing.T) {
	raw := []byte("Subject: binaryish\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"ok \xff\xfe bytes\r\n")

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "ok")
	assert.True(t, strings.Contains(msg.Content, "bytes"))
}

func TestDecodeGarbageFails(t *testing.T) {
	_, err := Decode([]byte("no header separator, not a message"))
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		max       int
		want      string
		wantWords int
	}{
		{
			name:      "under the cap is unchanged",
			text:      "one  two\tthree",
			max:       10,
			want:      "one  two\tthree",
			wantWords: 3,
		},
		{
			name:      "exactly the cap is unchanged",
			text:      "a b c",
			max:       3,
			want:      "a b c",
			wantWords: 3,
		},
		{
			name:      "over the cap keeps first tokens in order",
			text:      "a  b\nc d e",
			max:       3,
			want:      "a b c",
			wantWords: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.text, tt.max)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantWords, CountWords(got))
		})
	}
}

func TestTruncationLaw(t *testing.T) {
	words := make([]string, 0, MaxContentWords+500)
	for i := 0; i < MaxContentWords+500; i++ {
		words = append(words, "w")
	}
	body := strings.Join(words, " ")

	raw := []byte("Subject: long\r\nContent-Type: text/plain\r\n\r\n" + body + "\r\n")
	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, MaxContentWords, CountWords(msg.Content))
}
