package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/nalgeon/be"
	"go.uber.org/zap"
)

type scriptedLLM struct {
	order []string
}

func (s *scriptedLLM) Classify(ctx context.Context, email *core.Email, labels *core.LabelSet) (string, error) {
	s.order = append(s.order, email.ID)
	return `{"labels":["Work"]}`, nil
}

type cycleMailbox struct {
	unread  []*core.Email
	applied []string
}

func (m *cycleMailbox) ListUnread(ctx context.Context, max int) ([]*core.Email, error) {
	if max < len(m.unread) {
		return m.unread[:max], nil
	}
	return m.unread, nil
}

func (m *cycleMailbox) ApplyLabels(ctx context.Context, id string, labels []string) error {
	m.applied = append(m.applied, id)
	return nil
}

func (m *cycleMailbox) Archive(ctx context.Context, id string) error { return nil }

type countingState struct {
	mu      sync.Mutex
	entries map[string]time.Time
	prunes  int
}

func newCountingState() *countingState {
	return &countingState{entries: map[string]time.Time{}}
}

func (s *countingState) IsProcessed(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok, nil
}

func (s *countingState) MarkProcessed(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = now
	return nil
}

func (s *countingState) Prune(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prunes++
	return 0, nil
}

func (s *countingState) Close() error { return nil }

func TestRunCycleProcessesInEnumerationOrder(t *testing.T) {
	llm := &scriptedLLM{}
	mb := &cycleMailbox{unread: []*core.Email{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	st := newCountingState()
	ls := core.NewLabelSet([]string{"Work"}, "Classify.")
	svc := core.NewClassifierService(llm, mb, st, ls, zap.NewNop(), false)
	p := New(svc, mb, st, zap.NewNop(), time.Minute, 10)

	p.RunCycle(context.Background())

	be.Equal(t, llm.order, []string{"a", "b", "c"})
	be.Equal(t, mb.applied, []string{"a", "b", "c"})
	be.Equal(t, st.prunes, 1)
}

func TestRunCycleSkipsProcessedWithoutProviderCalls(t *testing.T) {
	llm := &scriptedLLM{}
	mb := &cycleMailbox{unread: []*core.Email{{ID: "m1"}}}
	st := newCountingState()
	ls := core.NewLabelSet([]string{"Work"}, "Classify.")
	svc := core.NewClassifierService(llm, mb, st, ls, zap.NewNop(), false)
	p := New(svc, mb, st, zap.NewNop(), time.Minute, 10)

	p.RunCycle(context.Background())
	be.Equal(t, len(llm.order), 1)

	// The same unread message next cycle: dedup keeps the provider idle.
	p.RunCycle(context.Background())
	be.Equal(t, len(llm.order), 1)
	be.Equal(t, st.prunes, 2)
}

func TestRunCycleHonorsMaxMessages(t *testing.T) {
	llm := &scriptedLLM{}
	mb := &cycleMailbox{unread: []*core.Email{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	st := newCountingState()
	ls := core.NewLabelSet([]string{"Work"}, "Classify.")
	svc := core.NewClassifierService(llm, mb, st, ls, zap.NewNop(), false)
	p := New(svc, mb, st, zap.NewNop(), time.Minute, 2)

	p.RunCycle(context.Background())
	be.Equal(t, llm.order, []string{"a", "b"})
}

func TestRunStopsOnCancel(t *testing.T) {
	llm := &scriptedLLM{}
	mb := &cycleMailbox{}
	st := newCountingState()
	ls := core.NewLabelSet([]string{"Work"}, "Classify.")
	svc := core.NewClassifierService(llm, mb, st, ls, zap.NewNop(), false)
	p := New(svc, mb, st, zap.NewNop(), 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		be.Equal(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}
