package ai

import (
	"context"
	"log/slog"
	"strings"
)

// Gateway wraps an Embedder with the retrieval subsystem's query rules:
// blank or whitespace-only text yields an empty vector without calling the
// provider. It adds no caching and no retry; provider failures propagate to
// the caller.
type Gateway struct {
	embedder Embedder
	logger   *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets a custom logger.
// Default is slog.Default().
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// NewGateway creates a new embedding gateway around the given embedder.
func NewGateway(embedder Embedder, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EmbedText embeds a single text. Blank input returns an empty vector and a
// nil error; this is an explicit no-op, not a failure.
func (g *Gateway) EmbedText(ctx context.Context, text string) ([]float32, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return []float32{}, nil
	}

	vec, err := g.embedder.EmbedText(ctx, cleaned)
	if err != nil {
		g.logger.Error("embedding generation failed", "length", len(cleaned), "err", err)
		return nil, err
	}
	return vec, nil
}

// EmbedTexts embeds a batch. Blank entries become empty vectors without
// reaching the provider; the rest go out in a single provider call.
func (g *Gateway) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		if t := strings.TrimSpace(text); t != "" {
			cleaned = append(cleaned, t)
			positions = append(positions, i)
		}
	}

	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{}
	}
	if len(cleaned) == 0 {
		return out, nil
	}

	vecs, err := g.embedder.EmbedTexts(ctx, cleaned)
	if err != nil {
		g.logger.Error("batch embedding generation failed", "count", len(cleaned), "err", err)
		return nil, err
	}
	for i, vec := range vecs {
		out[positions[i]] = vec
	}
	return out, nil
}

var _ Embedder = (*Gateway)(nil)
