package rag

import "context"

// Retrieved is one grounding hit: the source document's identity plus the
// text that goes into the prompt (a chunk for the similarity strategy, the
// whole document for the keyword strategy).
type Retrieved struct {
	DocID   string
	Title   string
	Content string
}

// Retriever returns the k best grounding passages for a question. Both
// strategies satisfy it; which one runs is a configuration choice.
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, question string, k int) ([]Retrieved, error)
}
