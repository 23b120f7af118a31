// Package rag answers natural-language questions about the live air-quality
// data, grounded on a fixed corpus of policy documents. Retrieval runs
// through one of two interchangeable strategies (vector similarity or
// keyword overlap) selected at configuration time; generation streams from
// an OpenAI-compatible chat endpoint.
package rag

// Kind tags what a Fragment carries.
type Kind int

const (
	// KindText is a piece of the generated answer.
	KindText Kind = iota
	// KindProgress reports initialization progress while a query waits.
	KindProgress
	// KindError is a human-readable failure notice, terminal unless a
	// degraded fallback follows it.
	KindError
	// KindDone terminates a completed answer and carries its sources.
	KindDone
)

// SourceRef identifies one grounding document of a final answer.
type SourceRef struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Fragment is one element of a streamed answer. Text, progress and error
// fragments carry Text; the terminal done fragment carries Sources.
type Fragment struct {
	Kind    Kind
	Text    string
	Sources []SourceRef
}

func TextFragment(text string) Fragment     { return Fragment{Kind: KindText, Text: text} }
func ProgressFragment(text string) Fragment { return Fragment{Kind: KindProgress, Text: text} }
func ErrorFragment(text string) Fragment    { return Fragment{Kind: KindError, Text: text} }

func DoneFragment(sources []SourceRef) Fragment {
	return Fragment{Kind: KindDone, Sources: sources}
}
