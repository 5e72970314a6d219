package classify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/message"
)

func testMessage() *message.NormalizedMessage {
	return &message.NormalizedMessage{
		Subject: "Quarterly report",
		From:    "alice@example.com",
		To:      "bob@example.com",
		Date:    "Mon, 02 Jan 2006 15:04:05 -0700",
		Content: "Please review the attached numbers.",
	}
}

func TestClassifySuccess(t *testing.T) {
	var gotRequest ollamaRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"content":" Review \n"}}`))
	}))
	defer srv.Close()

	c := NewOllamaClassifier(srv.URL, "llama3.2", time.Second)
	res, err := c.Classify(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, "Review", res.Label, "label must be trimmed to a bare token")
	assert.NotEmpty(t, res.Raw)

	assert.Equal(t, "llama3.2", gotRequest.Model)
	assert.False(t, gotRequest.Stream)
	assert.Equal(t, 0.5, gotRequest.Options.Temperature)
	assert.Equal(t, 100, gotRequest.Options.MaxTokens)
	assert.Contains(t, gotRequest.Prompt, "Return only one word answers")
	assert.Contains(t, gotRequest.Prompt, "Quarterly report")
}

func TestClassifyServerErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClassifier(srv.URL, "", time.Second)
	res, err := c.Classify(context.Background(), testMessage())
	require.NoError(t, err, "non-200 is a recoverable degrade, not an error")

	assert.Empty(t, res.Label)
	assert.Contains(t, string(res.Raw), "status 500")
}

func TestClassifyTransportErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewOllamaClassifier(srv.URL, "", time.Second)
	res, err := c.Classify(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Empty(t, res.Label)
	assert.Contains(t, string(res.Raw), "error")
}

func TestClassifyTimeoutDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewOllamaClassifier(srv.URL, "", 50*time.Millisecond)
	res, err := c.Classify(context.Background(), testMessage())
	require.NoError(t, err, "timeout is an oracle failure, not a pipeline error")
	assert.Empty(t, res.Label)
}

func TestClassifyMalformedResponseDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("definitely not json"))
	}))
	defer srv.Close()

	c := NewOllamaClassifier(srv.URL, "", time.Second)
	res, err := c.Classify(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Empty(t, res.Label)
	assert.Contains(t, string(res.Raw), "not parsable")
}

func TestClassifyEmptyContentMeansNoAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":""}}`))
	}))
	defer srv.Close()

	c := NewOllamaClassifier(srv.URL, "", time.Second)
	res, err := c.Classify(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Empty(t, res.Label)
}

func TestNewOllamaClassifierDefaults(t *testing.T) {
	c := NewOllamaClassifier("", "", 0)
	assert.Equal(t, DefaultEndpoint, c.Endpoint)
	assert.Equal(t, DefaultModel, c.Model)
	assert.Equal(t, DefaultTimeout, c.HTTPClient.Timeout)
}
