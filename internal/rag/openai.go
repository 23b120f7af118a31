package rag

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultLLMBaseURL is Google's OpenAI-compatible Gemini endpoint; any
// other OpenAI-compatible endpoint works through configuration.
const DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

const genTemperature = 0.4

// NewGeminiClient builds a go-openai client against an OpenAI-compatible
// endpoint, Gemini's by default.
func NewGeminiClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIEmbedder implements Embedder over the embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, model: openai.EmbeddingModel(model)}
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	// Responses carry an index per vector; place by it rather than trusting
	// slice order.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || vectors[0] == nil {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return vectors[0], nil
}

// OpenAIGenerator implements Generator over streaming chat completions.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(client *openai.Client, model string) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, model: model}
}

func (g *OpenAIGenerator) Name() string { return "openai-chat" }

func (g *OpenAIGenerator) Stream(ctx context.Context, prompt string) (TokenStream, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: genTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat stream: %w", err)
	}
	return &chatTokenStream{stream: stream}, nil
}

// chatTokenStream adapts the chat completion stream to TokenStream.
type chatTokenStream struct {
	stream *openai.ChatCompletionStream
}

func (s *chatTokenStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			return "", err // io.EOF on normal completion
		}
		if len(resp.Choices) == 0 {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *chatTokenStream) Close() error { return s.stream.Close() }
