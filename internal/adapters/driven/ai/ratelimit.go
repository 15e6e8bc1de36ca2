package ai

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/adapters/driven/aihttp"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultBurst is the token bucket size used for provider calls.
const DefaultBurst = 5

// rateLimitBackoff is how long calls pause after a provider answers 429.
const rateLimitBackoff = 10 * time.Second

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// RateLimiter throttles provider calls with a token bucket and pauses
// after the provider reports it is rate limiting us.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter for cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

// Wait blocks until a call may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// Observe records err; a 429 response pauses later calls.
func (r *RateLimiter) Observe(err error) {
	var statusErr *aihttp.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusTooManyRequests {
		return
	}
	r.mu.Lock()
	r.retryAt = time.Now().Add(rateLimitBackoff)
	r.mu.Unlock()
}

// RateLimitedLLM wraps an LLMService so every call waits on a limiter.
type RateLimitedLLM struct {
	driven.LLMService
	limiter *RateLimiter
}

// NewRateLimitedLLM wraps svc.
func NewRateLimitedLLM(svc driven.LLMService, limiter *RateLimiter) *RateLimitedLLM {
	return &RateLimitedLLM{LLMService: svc, limiter: limiter}
}

// Generate waits for the limiter, then delegates.
func (l *RateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := l.LLMService.Generate(ctx, prompt, opts)
	l.limiter.Observe(err)
	return out, err
}

// Chat waits for the limiter, then delegates.
func (l *RateLimitedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := l.LLMService.Chat(ctx, messages, opts)
	l.limiter.Observe(err)
	return out, err
}

// RateLimitedEmbedding wraps an EmbeddingService so every call waits on a limiter.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *RateLimiter
}

// NewRateLimitedEmbedding wraps svc.
func NewRateLimitedEmbedding(svc driven.EmbeddingService, limiter *RateLimiter) *RateLimitedEmbedding {
	return &RateLimitedEmbedding{EmbeddingService: svc, limiter: limiter}
}

// Embed waits for the limiter, then delegates.
func (e *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := e.EmbeddingService.Embed(ctx, text)
	e.limiter.Observe(err)
	return out, err
}

// EmbedBatch waits for the limiter, then delegates. A batch costs one token.
func (e *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := e.EmbeddingService.EmbedBatch(ctx, texts)
	e.limiter.Observe(err)
	return out, err
}
