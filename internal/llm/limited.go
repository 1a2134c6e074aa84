package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Limited wraps a Client with a client-side rate limit and a per-call
// deadline. Blank completions are reported as ErrUnavailable.
type Limited struct {
	next    Client
	limiter *rate.Limiter
	timeout time.Duration
}

var _ Client = (*Limited)(nil)

func NewLimited(next Client, perSecond float64, burst int, timeout time.Duration) *Limited {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

func (l *Limited) Generate(ctx context.Context, messages []Message) (Response, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit wait: %w", err)
	}
	resp, err := l.next.Generate(ctx, messages)
	if err != nil {
		return Response{}, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return Response{}, fmt.Errorf("empty completion from %s: %w", resp.Model, ErrUnavailable)
	}
	return resp, nil
}
