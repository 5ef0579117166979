package openai

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promethia-ai/promethia/internal/domain"
)

// Gate is the moderation gate backed by the OpenAI moderation endpoint.
// A disabled gate allows everything without calling out.
type Gate struct {
	client  *openai.Client
	model   string
	enabled bool
}

// NewGate creates a moderation adapter.
func NewGate(client *openai.Client, model string, enabled bool) *Gate {
	return &Gate{client: client, model: model, enabled: enabled}
}

// Check classifies the input. Disallowed content is a normal Decision;
// a non-nil error means the check itself failed and the caller decides
// the fail-open policy.
func (g *Gate) Check(ctx context.Context, text string) (domain.Decision, error) {
	if !g.enabled {
		return domain.Decision{Allowed: true}, nil
	}

	resp, err := g.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: g.model,
	})
	if err != nil {
		return domain.Decision{}, parseAPIError(err, domain.ErrModelProviderError)
	}
	if len(resp.Results) == 0 {
		return domain.Decision{Allowed: true}, nil
	}

	res := resp.Results[0]
	if !res.Flagged {
		return domain.Decision{Allowed: true}, nil
	}
	return domain.Decision{Allowed: false, Reason: flaggedReason(res)}, nil
}

// flaggedReason serializes the category flags so clients can see what tripped.
func flaggedReason(res openai.Result) string {
	data, err := json.Marshal(res.Categories)
	if err != nil {
		return "flagged"
	}
	return string(data)
}
