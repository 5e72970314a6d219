package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/classify"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/instrumentation"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/logging"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/message"
)

// Mailbox is the capability surface the pipeline consumes. The production
// implementation is the Gmail client; tests use fakes.
type Mailbox interface {
	// ListUnread returns the ids of the current unread set. A single
	// bounded page; the pipeline deliberately does not paginate further.
	ListUnread(ctx context.Context) ([]string, error)

	// FetchRaw returns the raw RFC 2822 bytes of a message.
	FetchRaw(ctx context.Context, id string) ([]byte, error)

	// MarkAsRead clears the unread state. Idempotent from the caller's
	// perspective.
	MarkAsRead(ctx context.Context, id string) error

	// ResolveLabel maps a label name to the provider's label id.
	ResolveLabel(ctx context.Context, name string) (string, error)

	// ApplyLabel attaches a resolved label to a message.
	ApplyLabel(ctx context.Context, id, labelID string) error
}

// Outcome records what happened to one message during a run. Outcomes are
// appended in processing order and never mutated afterwards.
type Outcome struct {
	EmailID        string          `json:"email_id"`
	Label          string          `json:"label,omitempty"`
	LabelResponse  string          `json:"label_response,omitempty"`
	OracleResponse json.RawMessage `json:"oracle_response,omitempty"`
}

// Message processing stages, used for logging and metrics.
const (
	stageFetched    = "fetched"
	stageDecoded    = "decoded"
	stageClassified = "classified"
	stageLabeled    = "labeled"
)

// Pipeline runs triage passes against one mailbox account.
type Pipeline struct {
	mailbox    Mailbox
	classifier classify.Classifier
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewPipeline creates a pipeline over the given mailbox and classifier.
// A nil logger falls back to slog.Default.
func NewPipeline(mailbox Mailbox, classifier classify.Classifier, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		mailbox:    mailbox,
		classifier: classifier,
		logger:     logger,
	}
}

// SetMetrics attaches a metrics recorder. Safe to leave unset.
func (p *Pipeline) SetMetrics(m *instrumentation.Metrics) {
	p.metrics = m
}

// messageResult is the explicit per-message result consumed by the run
// loop. It replaces exception-style control flow so the "one message never
// aborts the batch" guarantee is structural.
type messageResult struct {
	skipped bool
	reason  string
	outcome Outcome
}

func skip(reason string) messageResult {
	return messageResult{skipped: true, reason: reason}
}

// Run performs one triage pass and returns the accumulated outcomes.
//
// The outcome list contains exactly the messages that survived decode; ids
// that fail fetch or decode are skipped without an entry. The returned
// error is non-nil only for run-level failures (unread listing, context
// cancellation between messages), and even then the outcomes gathered so
// far are returned alongside it.
func (p *Pipeline) Run(ctx context.Context) ([]Outcome, error) {
	start := time.Now()
	ctx, span := instrumentation.StartTriageRunSpan(ctx)
	defer span.End()

	outcomes := make([]Outcome, 0)

	ids, err := p.mailbox.ListUnread(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		p.recordRun(ctx, instrumentation.StatusError, len(outcomes), time.Since(start))
		return outcomes, fmt.Errorf("failed to list unread messages: %w", err)
	}

	if len(ids) == 0 {
		p.logger.Info("no unread messages", logging.Operation("triage"))
		p.recordRun(ctx, instrumentation.StatusSuccess, 0, time.Since(start))
		return outcomes, nil
	}

	p.logger.Info("starting triage run",
		logging.Operation("triage"),
		slog.Int("unread", len(ids)))

	for _, id := range ids {
		// Cancellation is coarse-grained: between messages only. A message
		// that was already marked read stays read.
		if err := ctx.Err(); err != nil {
			instrumentation.SetSpanError(span, err)
			p.recordRun(ctx, instrumentation.StatusError, len(outcomes), time.Since(start))
			return outcomes, err
		}

		res := p.processMessage(ctx, id)
		if res.skipped {
			p.logger.Debug("skipping message",
				logging.Operation("triage"),
				slog.String("email_id", id),
				slog.String("reason", res.reason))
			p.recordMessage(ctx, "skipped")
			continue
		}
		outcomes = append(outcomes, res.outcome)
	}

	instrumentation.SetSpanSuccess(span)
	p.recordRun(ctx, instrumentation.StatusSuccess, len(outcomes), time.Since(start))
	p.logger.Info("triage run complete",
		logging.Operation("triage"),
		slog.Int("unread", len(ids)),
		slog.Int("processed", len(outcomes)))
	return outcomes, nil
}

// processMessage walks one message through fetch, decode, classify and
// label-apply. Every failure either skips the message or is folded into
// the outcome; nothing propagates out of the message boundary.
func (p *Pipeline) processMessage(ctx context.Context, id string) messageResult {
	raw, err := p.mailbox.FetchRaw(ctx, id)
	if err != nil {
		return skip(fmt.Sprintf("fetch failed: %v", err))
	}
	p.recordMessage(ctx, stageFetched)

	msg, err := message.Decode(raw)
	if err != nil {
		return skip(fmt.Sprintf("decode failed: %v", err))
	}
	p.recordMessage(ctx, stageDecoded)

	// Read-after-fetch: the message counts as read once its content has
	// been decoded, regardless of what classification does later. A
	// mark-read failure must not block the rest of the steps.
	if err := p.mailbox.MarkAsRead(ctx, id); err != nil {
		p.logger.Warn("failed to mark message as read",
			logging.Operation("triage"),
			slog.String("email_id", id),
			logging.Err(err))
	}

	result := p.classify(ctx, msg)
	p.recordMessage(ctx, stageClassified)

	outcome := Outcome{
		EmailID:        id,
		OracleResponse: result.Raw,
	}

	if result.Label == "" {
		// No label means no action, not an error.
		return messageResult{outcome: outcome}
	}

	outcome.Label = result.Label
	outcome.LabelResponse = p.applyLabel(ctx, id, result.Label)
	return messageResult{outcome: outcome}
}

// classify wraps the oracle call so that even adapter-level errors degrade
// to an absent label with an error marker.
func (p *Pipeline) classify(ctx context.Context, msg *message.NormalizedMessage) *classify.Result {
	start := time.Now()
	result, err := p.classifier.Classify(ctx, msg)
	if err != nil || result == nil {
		p.logger.Warn("classification failed",
			logging.Operation("triage"),
			logging.Err(err))
		marker, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("classification failed: %v", err)})
		result = &classify.Result{Raw: marker}
	}

	status := instrumentation.StatusSuccess
	if result.Label == "" {
		status = instrumentation.StatusUnknown
	}
	if p.metrics != nil {
		p.metrics.RecordOracleRequest(ctx, status, time.Since(start))
	}
	return result
}

// applyLabel resolves and applies a label, returning the response string
// recorded in the outcome. Lookup and mutation failures become error
// strings, never run failures.
func (p *Pipeline) applyLabel(ctx context.Context, id, label string) string {
	labelID, err := p.mailbox.ResolveLabel(ctx, label)
	if err != nil {
		p.logger.Warn("label not applied",
			logging.Operation("triage"),
			slog.String("email_id", id),
			slog.String("label", label),
			logging.Err(err))
		return fmt.Sprintf("label %q not applied: %v", label, err)
	}

	if err := p.mailbox.ApplyLabel(ctx, id, labelID); err != nil {
		p.logger.Warn("label apply failed",
			logging.Operation("triage"),
			slog.String("email_id", id),
			slog.String("label", label),
			logging.Err(err))
		return fmt.Sprintf("label %q not applied: %v", label, err)
	}

	p.recordMessage(ctx, stageLabeled)
	return fmt.Sprintf("applied label %q (%s)", label, labelID)
}

func (p *Pipeline) recordMessage(ctx context.Context, stage string) {
	if p.metrics != nil {
		p.metrics.RecordTriageMessage(ctx, stage)
	}
}

func (p *Pipeline) recordRun(ctx context.Context, status string, processed int, duration time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordTriageRun(ctx, status, processed, duration)
	}
}
