package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"greenpulse/internal/policy"
)

// Embedder turns text into vectors. Implemented by the OpenAI-compatible
// client adapter and by test fakes.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

const (
	chunkSize    = 400
	chunkOverlap = 50
)

// chunk is one indexed corpus piece.
type chunk struct {
	docID  string
	title  string
	text   string
	vector []float32
}

// SimilarityRetriever embeds the corpus once at initialization and answers
// retrieval by cosine similarity between the question vector and every
// chunk. The index is immutable after construction.
type SimilarityRetriever struct {
	embedder Embedder
	chunks   []chunk
}

// NewSimilarityIndex chunks each document ("Title\n\nContent") and embeds
// every chunk in one batch call.
func NewSimilarityIndex(ctx context.Context, embedder Embedder, docs []policy.Document) (*SimilarityRetriever, error) {
	var chunks []chunk
	var texts []string
	for _, d := range docs {
		for _, piece := range splitText(d.Title+"\n\n"+d.Content, chunkSize, chunkOverlap) {
			chunks = append(chunks, chunk{docID: d.ID, title: d.Title, text: piece})
			texts = append(texts, piece)
		}
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}
	for i := range chunks {
		chunks[i].vector = vectors[i]
	}

	return &SimilarityRetriever{embedder: embedder, chunks: chunks}, nil
}

func (r *SimilarityRetriever) Name() string { return StrategySimilarity }

// Retrieve embeds the question and returns the k nearest chunks, earlier
// chunks winning ties.
func (r *SimilarityRetriever) Retrieve(ctx context.Context, question string, k int) ([]Retrieved, error) {
	qv, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(r.chunks))
	for i, c := range r.chunks {
		ranked[i] = scored{index: i, score: cosine(qv, c.vector)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Retrieved, 0, len(ranked))
	for _, s := range ranked {
		c := r.chunks[s.index]
		out = append(out, Retrieved{DocID: c.docID, Title: c.title, Content: c.text})
	}
	return out, nil
}

// cosine returns the cosine similarity of two vectors, or zero when either
// has no magnitude or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// splitText cuts text into word-boundary chunks of at most size characters,
// carrying roughly overlap characters of shared context between neighbours.
// Whitespace runs collapse to single spaces.
func splitText(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var cur []string
	curLen := 0
	for _, w := range words {
		add := len(w)
		if curLen > 0 {
			add++ // joining space
		}
		if curLen+add > size && curLen > 0 {
			chunks = append(chunks, strings.Join(cur, " "))

			// Keep the last overlap-worth of words as shared context.
			tailStart := len(cur)
			tailLen := 0
			for tailStart > 0 {
				l := len(cur[tailStart-1])
				if tailLen > 0 {
					l++
				}
				if tailLen+l > overlap {
					break
				}
				tailLen += l
				tailStart--
			}
			cur = append([]string(nil), cur[tailStart:]...)
			curLen = tailLen

			add = len(w)
			if curLen > 0 {
				add++
			}
		}
		cur = append(cur, w)
		curLen += add
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}
