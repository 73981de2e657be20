package services

import (
	"context"

	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
)

// stubEmbedder returns canned vectors keyed by input text.
type stubEmbedder struct {
	vectors    map[string][]float32
	fallback   []float32
	dimensions int
	err        error
	calls      int
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			result[i] = v
		} else {
			result[i] = s.fallback
		}
	}
	return result, nil
}

func (s *stubEmbedder) Dimensions() int   { return s.dimensions }
func (s *stubEmbedder) ModelName() string { return "stub-embed" }
func (s *stubEmbedder) Close() error      { return nil }

// stubLLM records the last generation request and returns a fixed
// answer.
type stubLLM struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
	lastOpts   driven.GenerateOptions
}

var _ driven.LLMService = (*stubLLM)(nil)

func (s *stubLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastOpts = opts
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubLLM) ModelName() string { return "stub-llm" }
func (s *stubLLM) Close() error      { return nil }
