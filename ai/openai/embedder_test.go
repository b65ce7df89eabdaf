package openai

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/recall/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingClient stands in for the langchaingo embedder.
type failingClient struct {
	err error
}

func (f *failingClient) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}

func (f *failingClient) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, f.err
}

func TestEmbedTextWrapsServiceErrors(t *testing.T) {
	cause := errors.New("connection refused")
	e := &Embedder{embedder: &failingClient{err: cause}, logger: slog.Default()}

	_, err := e.EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrEmbedding)
	assert.ErrorIs(t, err, cause, "the underlying cause must stay matchable")
}

func TestEmbedTextsWrapsServiceErrors(t *testing.T) {
	cause := errors.New("model not found")
	e := &Embedder{embedder: &failingClient{err: cause}, logger: slog.Default()}

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrEmbedding)
	assert.ErrorIs(t, err, cause)
}
