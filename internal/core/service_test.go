package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nalgeon/be"
	"go.uber.org/zap"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Classify(ctx context.Context, email *Email, labels *LabelSet) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeMailbox struct {
	unread     []*Email
	applied    map[string][]string
	archived   []string
	applyErr   error
	archiveErr error
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{applied: map[string][]string{}}
}

func (f *fakeMailbox) ListUnread(ctx context.Context, max int) ([]*Email, error) {
	if max < len(f.unread) {
		return f.unread[:max], nil
	}
	return f.unread, nil
}

func (f *fakeMailbox) ApplyLabels(ctx context.Context, id string, labels []string) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied[id] = append([]string(nil), labels...)
	return nil
}

func (f *fakeMailbox) Archive(ctx context.Context, id string) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, id)
	return nil
}

type fakeState struct {
	entries map[string]time.Time
	markErr error
	readErr error
}

func newFakeState() *fakeState {
	return &fakeState{entries: map[string]time.Time{}}
}

func (f *fakeState) IsProcessed(ctx context.Context, id string) (bool, error) {
	if f.readErr != nil {
		return false, f.readErr
	}
	_, ok := f.entries[id]
	return ok, nil
}

func (f *fakeState) MarkProcessed(ctx context.Context, id string, now time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.entries[id] = now
	return nil
}

func (f *fakeState) Prune(ctx context.Context, now time.Time) (int, error) { return 0, nil }
func (f *fakeState) Close() error                                          { return nil }

func newService(llm *fakeLLM, mb *fakeMailbox, st *fakeState, archive bool) *ClassifierService {
	ls := NewLabelSet([]string{"Personal", "Work"}, "Classify this email.")
	return NewClassifierService(llm, mb, st, ls, zap.NewNop(), archive)
}

func TestProcessMessageLabelsAndMarks(t *testing.T) {
	llm := &fakeLLM{response: "```json\n{\"labels\":[\"Personal\"]}\n```"}
	mb := newFakeMailbox()
	st := newFakeState()
	svc := newService(llm, mb, st, false)

	msg := &Email{ID: "m1", Subject: "hello"}
	outcome, err := svc.ProcessMessage(context.Background(), msg)
	be.Err(t, err, nil)
	be.Equal(t, outcome, OutcomeLabeled)
	be.Equal(t, mb.applied["m1"], []string{"Personal"})
	be.Equal(t, len(mb.archived), 0)

	processed, err := st.IsProcessed(context.Background(), "m1")
	be.Err(t, err, nil)
	be.True(t, processed)

	// Second cycle: same unread message, zero provider calls.
	outcome, err = svc.ProcessMessage(context.Background(), msg)
	be.Err(t, err, nil)
	be.Equal(t, outcome, OutcomeSkipped)
	be.Equal(t, llm.calls, 1)
}

func TestProcessMessageArchivesWhenConfigured(t *testing.T) {
	llm := &fakeLLM{response: `{"labels":["Work"]}`}
	mb := newFakeMailbox()
	svc := newService(llm, mb, newFakeState(), true)

	outcome, err := svc.ProcessMessage(context.Background(), &Email{ID: "m2"})
	be.Err(t, err, nil)
	be.Equal(t, outcome, OutcomeLabeled)
	be.Equal(t, mb.archived, []string{"m2"})
}

func TestProcessMessageEmptyResultStillMarked(t *testing.T) {
	// Unparseable output degrades to no labels; the call was billed, so
	// the message must not be retried.
	llm := &fakeLLM{response: "I cannot classify this"}
	mb := newFakeMailbox()
	st := newFakeState()
	svc := newService(llm, mb, st, true)

	outcome, err := svc.ProcessMessage(context.Background(), &Email{ID: "m3"})
	be.Err(t, err, nil)
	be.Equal(t, outcome, OutcomeLabeled)
	be.Equal(t, len(mb.applied), 0)
	be.Equal(t, len(mb.archived), 0)

	processed, _ := st.IsProcessed(context.Background(), "m3")
	be.True(t, processed)
}

func TestProcessMessageProviderErrorLeavesUnmarked(t *testing.T) {
	llm := &fakeLLM{err: &ProviderTransportError{Provider: "openai", Cause: errors.New("rate limited")}}
	st := newFakeState()
	svc := newService(llm, newFakeMailbox(), st, false)

	outcome, err := svc.ProcessMessage(context.Background(), &Email{ID: "m4"})
	be.Equal(t, outcome, OutcomeFailed)
	be.True(t, IsRecoverable(err))

	processed, _ := st.IsProcessed(context.Background(), "m4")
	be.True(t, !processed)

	// The message stays eligible: a later cycle calls the provider again.
	llm.err = nil
	llm.response = `{"labels":[]}`
	outcome, err = svc.ProcessMessage(context.Background(), &Email{ID: "m4"})
	be.Err(t, err, nil)
	be.Equal(t, outcome, OutcomeLabeled)
	be.Equal(t, llm.calls, 2)
}

func TestProcessMessageApplyErrorLeavesUnmarked(t *testing.T) {
	llm := &fakeLLM{response: `{"labels":["Work"]}`}
	mb := newFakeMailbox()
	mb.applyErr = errors.New("label apply refused")
	st := newFakeState()
	svc := newService(llm, mb, st, false)

	outcome, err := svc.ProcessMessage(context.Background(), &Email{ID: "m5"})
	be.Equal(t, outcome, OutcomeFailed)

	var appErr *MailboxApplicationError
	be.True(t, errors.As(err, &appErr))
	be.Equal(t, appErr.MessageID, "m5")

	processed, _ := st.IsProcessed(context.Background(), "m5")
	be.True(t, !processed)
}

func TestProcessMessageArchiveErrorLeavesUnmarked(t *testing.T) {
	llm := &fakeLLM{response: `{"labels":["Work"]}`}
	mb := newFakeMailbox()
	mb.archiveErr = errors.New("archive refused")
	st := newFakeState()
	svc := newService(llm, mb, st, true)

	outcome, err := svc.ProcessMessage(context.Background(), &Email{ID: "m6"})
	be.Equal(t, outcome, OutcomeFailed)
	be.True(t, IsRecoverable(err))

	processed, _ := st.IsProcessed(context.Background(), "m6")
	be.True(t, !processed)
}

func TestProcessMessageStateReadErrorStillClassifies(t *testing.T) {
	llm := &fakeLLM{response: `{"labels":[]}`}
	st := newFakeState()
	st.readErr = errors.New("disk gone")
	svc := newService(llm, newFakeMailbox(), st, false)

	// Availability wins over dedup when the store cannot be read.
	outcome, err := svc.ProcessMessage(context.Background(), &Email{ID: "m7"})
	be.Err(t, err, nil)
	be.Equal(t, llm.calls, 1)
	be.Equal(t, outcome, OutcomeLabeled)
}
