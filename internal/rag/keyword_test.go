package rag

import (
	"context"
	"testing"

	"greenpulse/internal/policy"
)

func TestKeywordRetrieveRanksByTermHits(t *testing.T) {
	r := NewKeywordRetriever(policy.Corpus())

	hits, err := r.Retrieve(context.Background(), "How does the NCAP programme reduce pollution?", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected at least one hit")
	}
	if hits[0].DocID != "NCAP_2019" {
		t.Fatalf("expected NCAP_2019 first, got %q", hits[0].DocID)
	}
	if hits[0].Content == "" {
		t.Fatalf("expected document content in hit")
	}
}

func TestKeywordRetrieveTiesKeepCorpusOrder(t *testing.T) {
	r := NewKeywordRetriever(policy.Corpus())

	// "carbon" scores one term hit for both NDC_INDIA and GREEN_BHARAT_2024.
	hits, err := r.Retrieve(context.Background(), "carbon", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].DocID != "NDC_INDIA" || hits[1].DocID != "GREEN_BHARAT_2024" {
		t.Fatalf("expected corpus order on ties, got %q then %q", hits[0].DocID, hits[1].DocID)
	}
}

func TestKeywordRetrieveHonorsK(t *testing.T) {
	r := NewKeywordRetriever(policy.Corpus())

	hits, err := r.Retrieve(context.Background(), "pollution", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected exactly 1 hit, got %d", len(hits))
	}
}

func TestKeywordRetrieveNoMatches(t *testing.T) {
	r := NewKeywordRetriever(policy.Corpus())

	hits, err := r.Retrieve(context.Background(), "xyzzy frobnicate", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits for unrelated question, got %d", len(hits))
	}
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	got := tokenize("EV & PM2.5 in Delhi, by 20%!")
	want := map[string]bool{"pm2": true, "delhi": true}
	if len(got) != 2 {
		t.Fatalf("expected 2 tokens, got %v", got)
	}
	for _, tok := range got {
		if !want[tok] {
			t.Fatalf("unexpected token %q in %v", tok, got)
		}
	}
}
