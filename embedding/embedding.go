// Package embedding turns text into vectors for similarity search.
package embedding

import (
	"context"
	"strconv"
	"strings"
)

// Vector is a fixed-dimension embedding.
type Vector []float32

// String returns the pgvector text form, e.g. "[0.1,0.2]".
func (v Vector) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Provider embeds text.
type Provider interface {
	Embed(ctx context.Context, text string) (Vector, error)
}

// ProviderFunc adapts an ordinary function to a Provider.
type ProviderFunc func(ctx context.Context, text string) (Vector, error)

func (f ProviderFunc) Embed(ctx context.Context, text string) (Vector, error) {
	return f(ctx, text)
}
