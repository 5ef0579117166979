package domain

import "errors"

var (
	// ErrEmptyPrompt signals a missing or empty prompt, rejected before any stage runs.
	ErrEmptyPrompt = errors.New("prompt is required")
	// ErrEmptyClaim signals a missing claim on a verification request.
	ErrEmptyClaim = errors.New("claim is required")
	// ErrEmptyQuery signals a missing search or memory query.
	ErrEmptyQuery = errors.New("query is required")
	// ErrEmptyText signals a missing text on a memory store call.
	ErrEmptyText = errors.New("text is required")
	// ErrVectorDimMismatch signals an embedding with the wrong dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrModerationBlocked signals content disallowed by the moderation gate.
	ErrModerationBlocked = errors.New("content blocked by moderation")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrSearchProviderError signals a search provider failure.
	ErrSearchProviderError = errors.New("search provider error")
	// ErrModelProviderError signals a language model provider failure.
	ErrModelProviderError = errors.New("model provider error")
)
