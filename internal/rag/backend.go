package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"

	"greenpulse/internal/airquality"
	"greenpulse/internal/policy"
	"greenpulse/internal/store"
)

// Retrieval strategies selectable at configuration time.
const (
	StrategySimilarity = "similarity"
	StrategyKeyword    = "keyword"
)

// State is the initialization state machine of the backend.
type State int32

const (
	StateNotStarted State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stages reported while initializing.
const (
	StageStarting   = "starting"
	StageEmbeddings = "initializing_embeddings"
	StageIndexing   = "indexing_corpus"
	StageGenerator  = "preparing_generator"
	StageReady      = "ready"
	StageError      = "error"
)

// ErrMissingCredentials means no generation credentials were configured;
// the failure is permanent until the process restarts.
var ErrMissingCredentials = errors.New("GOOGLE_API_KEY environment variable is required")

// Options tune the backend.
type Options struct {
	Strategy      string
	TopK          int
	InitTimeout   time.Duration // how long a query waits for initialization
	ProgressEvery time.Duration // cadence of progress fragments while waiting
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategySimilarity
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.InitTimeout <= 0 {
		o.InitTimeout = 3 * time.Minute
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = 5 * time.Second
	}
	return o
}

// Backend answers questions grounded on the live snapshot and the policy
// corpus. Initialization runs asynchronously; queries arriving earlier wait
// for it with periodic progress fragments, bounded by Options.InitTimeout.
type Backend struct {
	snapshots *store.LatestStore
	corpus    []policy.Document
	embedder  Embedder  // nil without credentials (or for the keyword strategy)
	generator Generator // nil without credentials
	opts      Options

	state    atomic.Int32
	stage    atomic.String
	initErr  atomic.Error
	initOnce sync.Once
	initDone chan struct{}

	retriever Retriever // set by init before initDone closes
}

// NewBackend wires a backend; nothing heavy happens until Preload or the
// first question.
func NewBackend(snapshots *store.LatestStore, corpus []policy.Document, embedder Embedder, generator Generator, opts Options) *Backend {
	b := &Backend{
		snapshots: snapshots,
		corpus:    corpus,
		embedder:  embedder,
		generator: generator,
		opts:      opts.withDefaults(),
		initDone:  make(chan struct{}),
	}
	b.stage.Store(StageStarting)
	return b
}

// Status reports the state machine without triggering initialization.
type Status struct {
	State State
	Stage string
	Err   error
}

func (b *Backend) Status() Status {
	return Status{
		State: State(b.state.Load()),
		Stage: b.stage.Load(),
		Err:   b.initErr.Load(),
	}
}

// Preload starts background initialization. Safe to call any number of
// times; only the first has any effect.
func (b *Backend) Preload() {
	b.initOnce.Do(func() {
		b.state.Store(int32(StateInitializing))
		go b.init()
	})
}

func (b *Backend) init() {
	defer close(b.initDone)

	started := time.Now()
	if err := b.buildComponents(); err != nil {
		b.initErr.Store(err)
		b.stage.Store(StageError)
		b.state.Store(int32(StateFailed))
		log.Printf("rag: initialization failed: %v", err)
		return
	}
	b.stage.Store(StageReady)
	b.state.Store(int32(StateReady))
	log.Printf("rag: %s retrieval ready in %s", b.retriever.Name(), time.Since(started).Round(time.Millisecond))
}

func (b *Backend) buildComponents() error {
	b.stage.Store(StageEmbeddings)
	if b.generator == nil {
		return ErrMissingCredentials
	}

	b.stage.Store(StageIndexing)
	switch b.opts.Strategy {
	case StrategyKeyword:
		b.retriever = NewKeywordRetriever(b.corpus)
	case StrategySimilarity:
		if b.embedder == nil {
			return ErrMissingCredentials
		}
		index, err := NewSimilarityIndex(context.Background(), b.embedder, b.corpus)
		if err != nil {
			return fmt.Errorf("index corpus: %w", err)
		}
		b.retriever = index
	default:
		return fmt.Errorf("unknown retrieval strategy %q", b.opts.Strategy)
	}

	b.stage.Store(StageGenerator)
	return nil
}

// Ask answers the question against the current snapshot. The returned
// channel yields text, progress and error fragments, plus a terminal done
// fragment carrying the sources when an answer completes; it is closed when
// the stream ends. Asking triggers initialization if it has not started.
func (b *Backend) Ask(ctx context.Context, question string) <-chan Fragment {
	out := make(chan Fragment, 8)
	go func() {
		defer close(out)
		b.answer(ctx, question, out)
	}()
	return out
}

func (b *Backend) answer(ctx context.Context, question string, out chan<- Fragment) {
	b.Preload()
	if !b.awaitReady(ctx, out) {
		return
	}

	hits, err := b.retriever.Retrieve(ctx, question, b.opts.TopK)
	if err != nil {
		emit(ctx, out, ErrorFragment(fmt.Sprintf("⚠️ Retrieval error: %v", err)))
		return
	}
	sources := sourceRefs(hits)

	// The zero snapshot renders as "no data yet"; a question must not fail
	// just because the first poll cycle has not finished.
	snap, _ := b.snapshots.Current()

	prompt := buildPrompt(question, snap, hits)
	stream, err := b.generator.Stream(ctx, prompt)
	if err != nil {
		emit(ctx, out, ErrorFragment(fmt.Sprintf("⚠️ Generation error: %v\n\n", err)))
		b.streamFallback(ctx, out, snap, hits)
		emit(ctx, out, DoneFragment(sources))
		return
	}
	defer stream.Close()

	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			emit(ctx, out, ErrorFragment(fmt.Sprintf("⚠️ Generation error: %v\n\n", err)))
			b.streamFallback(ctx, out, snap, hits)
			break
		}
		if token == "" {
			continue
		}
		if !emit(ctx, out, TextFragment(token)) {
			return
		}
	}
	emit(ctx, out, DoneFragment(sources))
}

// awaitReady blocks until initialization succeeds. It returns false after
// emitting a terminal error fragment when initialization failed, timed out,
// or the caller went away.
func (b *Backend) awaitReady(ctx context.Context, out chan<- Fragment) bool {
	if !b.waitInit(ctx, out) {
		return false
	}
	if err := b.initErr.Load(); err != nil {
		emit(ctx, out, ErrorFragment(fmt.Sprintf("❌ Initialization failed: %v\n", err)))
		return false
	}
	return true
}

// waitInit waits for the init goroutine, reporting progress every
// ProgressEvery, up to InitTimeout.
func (b *Backend) waitInit(ctx context.Context, out chan<- Fragment) bool {
	select {
	case <-b.initDone:
		return true
	default:
	}

	started := time.Now()
	report := func() bool {
		msg := fmt.Sprintf("⏳ %s (%ds elapsed)\n",
			stageMessage(b.stage.Load()), int(time.Since(started).Seconds()))
		return emit(ctx, out, ProgressFragment(msg))
	}
	// Immediate feedback, then the ticker takes over.
	if !report() {
		return false
	}

	timeout := time.NewTimer(b.opts.InitTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(b.opts.ProgressEvery)
	defer ticker.Stop()

	for {
		select {
		case <-b.initDone:
			return true
		case <-ticker.C:
			if !report() {
				return false
			}
		case <-timeout.C:
			emit(ctx, out, ErrorFragment(fmt.Sprintf(
				"⏳ Initialization timed out after %.0fs. Please check backend logs.\n",
				b.opts.InitTimeout.Seconds())))
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func stageMessage(stage string) string {
	switch stage {
	case StageStarting:
		return "Initializing..."
	case StageEmbeddings:
		return "Initializing embeddings API..."
	case StageIndexing:
		return "Indexing policy corpus..."
	case StageGenerator:
		return "Preparing language model..."
	default:
		return fmt.Sprintf("Working... (%s)", stage)
	}
}

// streamFallback writes the canned degraded answer word by word.
func (b *Backend) streamFallback(ctx context.Context, out chan<- Fragment, snap airquality.Snapshot, hits []Retrieved) {
	for _, word := range strings.Fields(fallbackAnswer(snap, hits)) {
		if !emit(ctx, out, TextFragment(word+" ")) {
			return
		}
	}
}

// sourceRefs deduplicates hits into source references, first occurrence
// order preserved.
func sourceRefs(hits []Retrieved) []SourceRef {
	refs := make([]SourceRef, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if seen[h.DocID] {
			continue
		}
		seen[h.DocID] = true
		refs = append(refs, SourceRef{Title: h.Title, ID: h.DocID})
	}
	return refs
}

// emit delivers f unless the caller has gone away.
func emit(ctx context.Context, out chan<- Fragment, f Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
