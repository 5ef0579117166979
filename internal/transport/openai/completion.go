package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/promethia-ai/promethia/internal/domain"
)

// streamBuffer bounds the delta channel between the SDK reader goroutine
// and the orchestrator relay.
const streamBuffer = 32

// Completer drives chat completions, streaming and non-streaming.
type Completer struct {
	client      *openai.Client
	temperature float32
	logger      *zap.Logger
}

// NewCompleter creates a completion adapter.
func NewCompleter(client *openai.Client, temperature float32, logger *zap.Logger) *Completer {
	return &Completer{client: client, temperature: temperature, logger: logger}
}

// Stream submits the prompt and returns a channel of text deltas in
// provider emission order. On normal completion the delta channel closes
// with a nil on errCh; on a stream-level failure errCh delivers exactly
// one error. Cancelling ctx abandons the stream.
func (c *Completer) Stream(ctx context.Context, model, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, streamBuffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		stream, err := c.client.CreateChatCompletionStream(ctx, c.request(model, prompt))
		if err != nil {
			errCh <- parseAPIError(err, domain.ErrModelProviderError)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					// caller went away, nothing to report
					return
				}
				errCh <- parseAPIError(err, domain.ErrModelProviderError)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

// Complete submits the prompt and returns the full completion text.
func (c *Completer) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(model, prompt))
	if err != nil {
		return "", parseAPIError(err, domain.ErrModelProviderError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrModelProviderError)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Completer) request(model, prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
}
