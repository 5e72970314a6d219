package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/message"
)

const (
	// DefaultEndpoint is the local Ollama API endpoint.
	DefaultEndpoint = "http://localhost:11434/api/generate"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "llama3.2"

	// DefaultTimeout bounds a single oracle request. Timeouts surface as
	// recoverable transport failures, not errors.
	DefaultTimeout = 120 * time.Second
)

// instructionTemplate sets a strict single-word expectation so label
// application only needs to trim the response, never parse free text.
const instructionTemplate = "You are an email assistant. " +
	"Determine if the following email is an advertisement, spam or important. " +
	"If important, respond with 'Review'. If an advertisement respond with 'Ads'. " +
	"If it discusses political themes respond with 'TRASH'. " +
	"If the email does not identify the recipient directly then consider it an advertisement. " +
	"If the sentiment is personal, respond with 'Review'. " +
	"If the content is HTML don't evaluate it, instead use the reply-to address to determine if it is spam or not. " +
	"Return only one word answers. "

// Result is the outcome of one classification request. An empty Label
// means "no action", not "error"; Raw carries the oracle's response body
// or an error marker when the request failed.
type Result struct {
	Label string          `json:"label,omitempty"`
	Raw   json.RawMessage `json:"raw_response,omitempty"`
}

// Classifier is the oracle capability consumed by the triage pipeline.
type Classifier interface {
	Classify(ctx context.Context, msg *message.NormalizedMessage) (*Result, error)
}

// OllamaClassifier classifies messages through a local Ollama endpoint.
type OllamaClassifier struct {
	Endpoint    string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// NewOllamaClassifier returns a classifier for the given endpoint and
// model, falling back to defaults for empty values.
func NewOllamaClassifier(endpoint, model string, timeout time.Duration) *OllamaClassifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaClassifier{
		Endpoint:    endpoint,
		Model:       model,
		Temperature: 0.5,
		MaxTokens:   100,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Classify issues one blocking request to the oracle. Transport failures,
// non-200 statuses and unparsable responses all degrade to a Result with
// an empty label and an error marker; the returned error is reserved for
// request construction failures.
func (c *OllamaClassifier) Classify(ctx context.Context, msg *message.NormalizedMessage) (*Result, error) {
	content, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message for classification: %w", err)
	}

	payload, err := json.Marshal(ollamaRequest{
		Model:  c.Model,
		Prompt: instructionTemplate + string(content),
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient().Do(req)
	if err != nil {
		return degraded(fmt.Sprintf("oracle request failed: %v", err)), nil
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return degraded(fmt.Sprintf("oracle response read failed: %v", err)), nil
	}

	if res.StatusCode != http.StatusOK {
		return degraded(fmt.Sprintf("oracle returned status %d", res.StatusCode)), nil
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return degraded(fmt.Sprintf("oracle response not parsable: %v", err)), nil
	}

	return &Result{
		Label: strings.TrimSpace(parsed.Message.Content),
		Raw:   json.RawMessage(body),
	}, nil
}

func (c *OllamaClassifier) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// degraded builds the no-label Result used for recoverable failures.
func degraded(reason string) *Result {
	marker, _ := json.Marshal(map[string]string{"error": reason})
	return &Result{Raw: json.RawMessage(marker)}
}
