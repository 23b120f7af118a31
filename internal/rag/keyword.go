package rag

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"greenpulse/internal/policy"
)

// KeywordRetriever scores whole documents by how many of their title words
// and keywords appear in the question. No network, no index build; the
// dependency-light strategy.
type KeywordRetriever struct {
	docs  []policy.Document
	terms [][]string // per-document scoring terms, lowercased, deduplicated
}

func NewKeywordRetriever(docs []policy.Document) *KeywordRetriever {
	r := &KeywordRetriever{
		docs:  docs,
		terms: make([][]string, len(docs)),
	}
	for i, d := range docs {
		seen := make(map[string]bool)
		var terms []string
		for _, w := range tokenize(d.Title) {
			if !seen[w] {
				seen[w] = true
				terms = append(terms, w)
			}
		}
		for _, kw := range d.Keywords {
			kw = strings.ToLower(kw)
			if !seen[kw] {
				seen[kw] = true
				terms = append(terms, kw)
			}
		}
		r.terms[i] = terms
	}
	return r
}

func (r *KeywordRetriever) Name() string { return StrategyKeyword }

// Retrieve ranks documents by term hits, descending. Corpus order breaks
// ties; documents scoring zero never appear.
func (r *KeywordRetriever) Retrieve(_ context.Context, question string, k int) ([]Retrieved, error) {
	qset := make(map[string]bool)
	for _, tok := range tokenize(question) {
		qset[tok] = true
	}

	type scored struct {
		index int
		score int
	}
	var ranked []scored
	for i, terms := range r.terms {
		score := 0
		for _, t := range terms {
			if qset[t] {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{index: i, score: score})
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Retrieved, 0, len(ranked))
	for _, s := range ranked {
		d := r.docs[s.index]
		out = append(out, Retrieved{DocID: d.ID, Title: d.Title, Content: d.Content})
	}
	return out, nil
}

// tokenize lowercases, splits on anything that is not a letter or digit and
// drops tokens shorter than three characters, which filters articles and
// other noise words.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}
