package ratelimit

import (
	"context"

	"analytics-gateway/middleware/ratelimit/domain"
)

type decisionKey struct{}

// WithDecision anexa a decisão do gate ao contexto da requisição.
func WithDecision(ctx context.Context, dec domain.Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, dec)
}

// DecisionFromContext devolve a decisão do gate que protegeu esta requisição.
func DecisionFromContext(ctx context.Context) (domain.Decision, bool) {
	dec, ok := ctx.Value(decisionKey{}).(domain.Decision)
	return dec, ok
}
