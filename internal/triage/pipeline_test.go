package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/classify"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/message"
)

// fakeMailbox implements Mailbox in memory and records every mutation.
type fakeMailbox struct {
	unread        []string
	listErr       error
	rawByID       map[string][]byte
	fetchErr      map[string]error
	labels        map[string]string // name -> id
	markedRead    []string
	markReadErr   map[string]error
	appliedLabels map[string][]string // id -> label ids
	applyErr      map[string]error
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		rawByID:       make(map[string][]byte),
		fetchErr:      make(map[string]error),
		labels:        map[string]string{"Review": "Label_1", "Ads": "Label_2"},
		markReadErr:   make(map[string]error),
		appliedLabels: make(map[string][]string),
		applyErr:      make(map[string]error),
	}
}

func (f *fakeMailbox) ListUnread(context.Context) ([]string, error) {
	return f.unread, f.listErr
}

func (f *fakeMailbox) FetchRaw(_ context.Context, id string) ([]byte, error) {
	if err := f.fetchErr[id]; err != nil {
		return nil, err
	}
	raw, ok := f.rawByID[id]
	if !ok {
		return nil, fmt.Errorf("no such message %s", id)
	}
	return raw, nil
}

func (f *fakeMailbox) MarkAsRead(_ context.Context, id string) error {
	f.markedRead = append(f.markedRead, id)
	return f.markReadErr[id]
}

func (f *fakeMailbox) ResolveLabel(_ context.Context, name string) (string, error) {
	id, ok := f.labels[name]
	if !ok {
		return "", fmt.Errorf("label %q not found", name)
	}
	return id, nil
}

func (f *fakeMailbox) ApplyLabel(_ context.Context, id, labelID string) error {
	if err := f.applyErr[id]; err != nil {
		return err
	}
	f.appliedLabels[id] = append(f.appliedLabels[id], labelID)
	return nil
}

// fakeClassifier returns configured labels keyed by message subject and
// counts its invocations.
type fakeClassifier struct {
	labelsBySubject map[string]string
	degraded        map[string]bool // subject -> simulate transport failure
	calls           int
}

func (f *fakeClassifier) Classify(_ context.Context, msg *message.NormalizedMessage) (*classify.Result, error) {
	f.calls++
	if f.degraded[msg.Subject] {
		marker, _ := json.Marshal(map[string]string{"error": "oracle returned status 500"})
		return &classify.Result{Raw: marker}, nil
	}
	label := f.labelsBySubject[msg.Subject]
	raw, _ := json.Marshal(map[string]any{"message": map[string]string{"content": label}})
	return &classify.Result{Label: label, Raw: raw}, nil
}

func rawMessage(subject string) []byte {
	return []byte("From: sender@example.com\r\n" +
		"To: me@example.com\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		"Some body text.\r\n")
}

func TestRunEmptyUnreadSet(t *testing.T) {
	mb := newFakeMailbox()
	cl := &fakeClassifier{}
	p := NewPipeline(mb, cl, nil)

	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, outcomes)
	assert.NotNil(t, outcomes, "an empty run still returns a list")
	assert.Zero(t, cl.calls, "empty unread set must not contact the oracle")
}

func TestRunLabelsClassifiedMessages(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"m1", "m2"}
	mb.rawByID["m1"] = rawMessage("personal note")
	mb.rawByID["m2"] = rawMessage("buy stuff")

	cl := &fakeClassifier{labelsBySubject: map[string]string{
		"personal note": "Review",
		"buy stuff":     "Ads",
	}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "m1", outcomes[0].EmailID)
	assert.Equal(t, "Review", outcomes[0].Label)
	assert.Contains(t, outcomes[0].LabelResponse, "applied label")
	assert.Equal(t, []string{"Label_1"}, mb.appliedLabels["m1"])
	assert.Equal(t, []string{"Label_2"}, mb.appliedLabels["m2"])
	assert.Equal(t, []string{"m1", "m2"}, mb.markedRead)
}

func TestRunSkipsDecodeFailureWithoutMarkingRead(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"a", "b"}
	mb.rawByID["a"] = rawMessage("fine")
	mb.rawByID["b"] = []byte("not a parsable message at all")

	cl := &fakeClassifier{labelsBySubject: map[string]string{"fine": "Review"}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1, "only messages that pass decode are recorded")
	assert.Equal(t, "a", outcomes[0].EmailID)
	assert.Equal(t, []string{"a"}, mb.markedRead, "decode failure leaves read-state untouched")
	assert.Equal(t, 1, cl.calls)
}

func TestRunFetchFailureSkipsMessage(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"a", "b"}
	mb.fetchErr["a"] = errors.New("transient 503")
	mb.rawByID["b"] = rawMessage("survivor")

	cl := &fakeClassifier{labelsBySubject: map[string]string{"survivor": "Review"}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, "b", outcomes[0].EmailID)
	assert.NotContains(t, mb.markedRead, "a")
}

func TestRunOracleFailureDegradesToNoLabel(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"c"}
	mb.rawByID["c"] = rawMessage("flaky")

	cl := &fakeClassifier{degraded: map[string]bool{"flaky": true}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Empty(t, outcomes[0].Label)
	assert.Empty(t, outcomes[0].LabelResponse)
	assert.Contains(t, string(outcomes[0].OracleResponse), "error")
	assert.Empty(t, mb.appliedLabels, "absent label means zero label-apply calls")
	assert.Equal(t, []string{"c"}, mb.markedRead, "oracle failure happens after mark-read")
}

func TestRunEmptyLabelMeansNoLabelCalls(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"d"}
	mb.rawByID["d"] = rawMessage("neutral")

	cl := &fakeClassifier{labelsBySubject: map[string]string{"neutral": ""}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Empty(t, outcomes[0].Label)
	assert.Empty(t, mb.appliedLabels)
}

func TestRunUnknownLabelRecordsErrorAndContinues(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"e", "f"}
	mb.rawByID["e"] = rawMessage("weird")
	mb.rawByID["f"] = rawMessage("normal")

	cl := &fakeClassifier{labelsBySubject: map[string]string{
		"weird":  "NoSuchLabel",
		"normal": "Review",
	}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "NoSuchLabel", outcomes[0].Label)
	assert.Contains(t, outcomes[0].LabelResponse, "not applied")
	assert.Empty(t, mb.appliedLabels["e"], "unknown label must not reach the apply capability")

	assert.Contains(t, outcomes[1].LabelResponse, "applied label")
	assert.Equal(t, []string{"Label_1"}, mb.appliedLabels["f"])
}

func TestRunApplyFailureRecordedPerMessage(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"g"}
	mb.rawByID["g"] = rawMessage("labeled")
	mb.applyErr["g"] = errors.New("modify: backend unavailable")

	cl := &fakeClassifier{labelsBySubject: map[string]string{"labeled": "Review"}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Contains(t, outcomes[0].LabelResponse, "not applied")
}

func TestRunMarkReadFailureDoesNotCorruptLaterSteps(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"h"}
	mb.rawByID["h"] = rawMessage("already read")
	mb.markReadErr["h"] = errors.New("already marked")

	cl := &fakeClassifier{labelsBySubject: map[string]string{"already read": "Review"}}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, []string{"Label_1"}, mb.appliedLabels["h"])
}

func TestRunListFailureReturnsEmptyOutcomes(t *testing.T) {
	mb := newFakeMailbox()
	mb.listErr = errors.New("quota exceeded")

	p := NewPipeline(mb, &fakeClassifier{}, nil)
	outcomes, err := p.Run(context.Background())

	require.Error(t, err)
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)
}

func TestRunCancellationBetweenMessages(t *testing.T) {
	mb := newFakeMailbox()
	mb.unread = []string{"x", "y"}
	mb.rawByID["x"] = rawMessage("first")
	mb.rawByID["y"] = rawMessage("second")

	ctx, cancel := context.WithCancel(context.Background())
	cl := &cancellingClassifier{cancel: cancel}

	p := NewPipeline(mb, cl, nil)
	outcomes, err := p.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, outcomes, 1, "outcomes gathered before cancellation are returned")
	assert.Equal(t, []string{"x"}, mb.markedRead, "the already-read first message stays read")
}

// cancellingClassifier cancels the run context after its first call.
type cancellingClassifier struct {
	cancel context.CancelFunc
}

func (c *cancellingClassifier) Classify(context.Context, *message.NormalizedMessage) (*classify.Result, error) {
	defer c.cancel()
	return &classify.Result{}, nil
}
