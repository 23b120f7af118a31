package rag

import "context"

// Generator produces a streaming completion for a prompt.
type Generator interface {
	Name() string
	Stream(ctx context.Context, prompt string) (TokenStream, error)
}

// TokenStream yields answer tokens until io.EOF. Streams are finite and not
// restartable; callers must Close them.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}
