package rag

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"greenpulse/internal/policy"
	"greenpulse/internal/store"
)

// blockedEmbedder stalls corpus embedding until released, simulating a slow
// embeddings API during initialization.
type blockedEmbedder struct {
	release chan struct{}
}

func (b blockedEmbedder) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	<-b.release
	return nil, errors.New("released")
}

func (b blockedEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	<-b.release
	return nil, errors.New("released")
}

type fakeStream struct {
	tokens []string
	err    error // returned once tokens drain; nil means clean end
	pos    int
	closed bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.pos < len(s.tokens) {
		tok := s.tokens[s.pos]
		s.pos++
		return tok, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeGenerator struct {
	stream     *fakeStream
	err        error
	lastPrompt string
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Stream(_ context.Context, prompt string) (TokenStream, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.lastPrompt = prompt
	return g.stream, nil
}

func collectFragments(t *testing.T, ch <-chan Fragment) []Fragment {
	t.Helper()
	var out []Fragment
	deadline := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-deadline:
			t.Fatalf("fragment stream did not close in time")
		}
	}
}

func countKind(frags []Fragment, kind Kind) int {
	n := 0
	for _, f := range frags {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func waitForState(t *testing.T, b *Backend, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.Status().State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("backend never reached %v, still %v", want, b.Status().State)
}

func TestBackendStatusDoesNotTriggerInit(t *testing.T) {
	b := NewBackend(store.NewLatestStore(), policy.Corpus(), nil, nil, Options{Strategy: StrategyKeyword})

	status := b.Status()
	if status.State != StateNotStarted {
		t.Fatalf("expected not-started, got %v", status.State)
	}
	if status.Stage != StageStarting {
		t.Fatalf("expected starting stage, got %q", status.Stage)
	}
	if b.Status().State != StateNotStarted {
		t.Fatalf("status check must not start initialization")
	}
}

func TestBackendInitTimeoutFragment(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	b := NewBackend(store.NewLatestStore(), policy.Corpus(), blockedEmbedder{release: release}, &fakeGenerator{}, Options{
		Strategy:      StrategySimilarity,
		InitTimeout:   80 * time.Millisecond,
		ProgressEvery: 20 * time.Millisecond,
	})

	frags := collectFragments(t, b.Ask(context.Background(), "any question"))

	if countKind(frags, KindProgress) == 0 {
		t.Fatalf("expected progress fragments while initialization stalls, got %v", frags)
	}
	if n := countKind(frags, KindError); n != 1 {
		t.Fatalf("expected exactly one terminal error fragment, got %d", n)
	}
	last := frags[len(frags)-1]
	if last.Kind != KindError || !strings.Contains(last.Text, "timed out") {
		t.Fatalf("expected trailing timeout fragment, got %+v", last)
	}
	if countKind(frags, KindDone) != 0 {
		t.Fatalf("timed-out question must not report completion")
	}
}

func TestBackendMissingCredentials(t *testing.T) {
	b := NewBackend(store.NewLatestStore(), policy.Corpus(), nil, nil, Options{Strategy: StrategySimilarity})

	b.Preload()
	waitForState(t, b, StateFailed)

	if b.Status().Stage != StageError {
		t.Fatalf("expected error stage, got %q", b.Status().Stage)
	}

	// Every question reports the permanent failure.
	for i := 0; i < 2; i++ {
		frags := collectFragments(t, b.Ask(context.Background(), "why is the sky grey"))
		if len(frags) != 1 || frags[0].Kind != KindError {
			t.Fatalf("expected single error fragment, got %v", frags)
		}
		if !strings.Contains(frags[0].Text, "GOOGLE_API_KEY") {
			t.Fatalf("expected missing key message, got %q", frags[0].Text)
		}
	}
}

func TestBackendAnswerStreamsTokensAndSources(t *testing.T) {
	gen := &fakeGenerator{stream: &fakeStream{tokens: []string{"Delhi ", "needs ", "GRAP."}}}
	b := NewBackend(store.NewLatestStore(), policy.Corpus(), nil, gen, Options{Strategy: StrategyKeyword})

	frags := collectFragments(t, b.Ask(context.Background(), "What does NCAP target for pollution?"))

	if countKind(frags, KindError) != 0 {
		t.Fatalf("unexpected error fragments: %v", frags)
	}
	var text strings.Builder
	for _, f := range frags {
		if f.Kind == KindText {
			text.WriteString(f.Text)
		}
	}
	if text.String() != "Delhi needs GRAP." {
		t.Fatalf("unexpected answer text %q", text.String())
	}

	last := frags[len(frags)-1]
	if last.Kind != KindDone {
		t.Fatalf("expected trailing done fragment, got %+v", last)
	}
	if len(last.Sources) != 1 || last.Sources[0].ID != "NCAP_2019" {
		t.Fatalf("expected NCAP_2019 source, got %v", last.Sources)
	}

	if !strings.Contains(gen.lastPrompt, "Question: What does NCAP target for pollution?") {
		t.Fatalf("generator prompt missing question:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "National Clean Air Programme") {
		t.Fatalf("generator prompt missing retrieved policy:\n%s", gen.lastPrompt)
	}
	if !gen.stream.closed {
		t.Fatalf("expected token stream closed after drain")
	}
}

func TestBackendMidStreamFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{stream: &fakeStream{tokens: []string{"Partial "}, err: errors.New("quota exhausted")}}
	b := NewBackend(store.NewLatestStore(), policy.Corpus(), nil, gen, Options{Strategy: StrategyKeyword})

	frags := collectFragments(t, b.Ask(context.Background(), "grap stage for severe aqi"))

	if n := countKind(frags, KindError); n != 1 {
		t.Fatalf("expected one error fragment, got %d", n)
	}

	// The canned answer streams after the error so the client still gets
	// something useful.
	errAt := -1
	lastTextAt := -1
	for i, f := range frags {
		switch f.Kind {
		case KindError:
			errAt = i
		case KindText:
			lastTextAt = i
		}
	}
	if lastTextAt < errAt {
		t.Fatalf("expected fallback text after the error fragment: %v", frags)
	}

	last := frags[len(frags)-1]
	if last.Kind != KindDone || len(last.Sources) == 0 {
		t.Fatalf("expected done fragment with sources, got %+v", last)
	}
}

func TestBackendGeneratorUnavailableFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("api down")}
	b := NewBackend(store.NewLatestStore(), policy.Corpus(), nil, gen, Options{Strategy: StrategyKeyword})

	frags := collectFragments(t, b.Ask(context.Background(), "ncap monitoring"))

	if countKind(frags, KindError) != 1 {
		t.Fatalf("expected one error fragment, got %v", frags)
	}
	if countKind(frags, KindText) == 0 {
		t.Fatalf("expected fallback text, got %v", frags)
	}
	if frags[len(frags)-1].Kind != KindDone {
		t.Fatalf("expected trailing done fragment, got %+v", frags[len(frags)-1])
	}
}

func TestBackendCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	b := NewBackend(store.NewLatestStore(), policy.Corpus(), blockedEmbedder{release: release}, &fakeGenerator{}, Options{
		Strategy:      StrategySimilarity,
		InitTimeout:   time.Minute,
		ProgressEvery: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Ask(ctx, "question")
	cancel()

	frags := collectFragments(t, ch)
	if countKind(frags, KindDone) != 0 {
		t.Fatalf("cancelled question must not complete, got %v", frags)
	}
}

func TestSourceRefsDeduplicate(t *testing.T) {
	refs := sourceRefs([]Retrieved{
		{DocID: "A", Title: "first"},
		{DocID: "A", Title: "first"},
		{DocID: "B", Title: "second"},
	})
	if len(refs) != 2 || refs[0].ID != "A" || refs[1].ID != "B" {
		t.Fatalf("unexpected refs: %v", refs)
	}
}
