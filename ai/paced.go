package ai

import "context"

// PacedEmbedder wraps an Embedder with a Pacer, throttling each embedding
// call. Batch calls pace once per input text so long ingestions observe the
// same cadence as element-wise loops.
type PacedEmbedder struct {
	inner Embedder
	pacer Pacer
}

var _ Embedder = (*PacedEmbedder)(nil)

// NewPacedEmbedder wraps inner with the given pacer. A nil pacer disables
// throttling.
func NewPacedEmbedder(inner Embedder, pacer Pacer) *PacedEmbedder {
	if pacer == nil {
		pacer = NopPacer{}
	}
	return &PacedEmbedder{inner: inner, pacer: pacer}
}

// EmbedText paces, then delegates.
func (e *PacedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := e.pacer.Pace(ctx); err != nil {
		return nil, err
	}
	return e.inner.EmbedText(ctx, text)
}

// EmbedTexts paces once per text, then delegates the whole batch.
func (e *PacedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	for range texts {
		if err := e.pacer.Pace(ctx); err != nil {
			return nil, err
		}
	}
	return e.inner.EmbedTexts(ctx, texts)
}
