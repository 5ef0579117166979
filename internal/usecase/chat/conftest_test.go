package chat

import (
	"context"
	"testing"
	"time"

	"github.com/promethia-ai/promethia/internal/domain"
)

// Function-field mocks. A nil field is a benign default: gate allows,
// memory is empty, search finds nothing, the model answers "ok".

type mockGate struct {
	check func(ctx context.Context, text string) (domain.Decision, error)
}

func (m *mockGate) Check(ctx context.Context, text string) (domain.Decision, error) {
	if m.check == nil {
		return domain.Decision{Allowed: true}, nil
	}
	return m.check(ctx, text)
}

type mockMemories struct {
	query func(ctx context.Context, text string, topK int) ([]domain.MemoryMatch, error)
	store func(ctx context.Context, namespace, text string) (int64, error)
}

func (m *mockMemories) Query(ctx context.Context, text string, topK int) ([]domain.MemoryMatch, error) {
	if m.query == nil {
		return nil, nil
	}
	return m.query(ctx, text, topK)
}

func (m *mockMemories) Store(ctx context.Context, namespace, text string) (int64, error) {
	if m.store == nil {
		return 1, nil
	}
	return m.store(ctx, namespace, text)
}

type mockSearcher struct {
	search func(ctx context.Context, query string, size int) ([]domain.SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, query string, size int) ([]domain.SearchResult, error) {
	if m.search == nil {
		return nil, nil
	}
	return m.search(ctx, query, size)
}

type mockCompleter struct {
	stream   func(ctx context.Context, model, prompt string) (<-chan string, <-chan error)
	complete func(ctx context.Context, model, prompt string) (string, error)
}

func (m *mockCompleter) Stream(ctx context.Context, model, prompt string) (<-chan string, <-chan error) {
	if m.stream == nil {
		return scriptedStream(nil, nil)(ctx, model, prompt)
	}
	return m.stream(ctx, model, prompt)
}

func (m *mockCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	if m.complete == nil {
		return "ok", nil
	}
	return m.complete(ctx, model, prompt)
}

// scriptedStream yields the deltas in order, then terminates with err
// (nil for normal completion).
func scriptedStream(deltas []string, err error) func(context.Context, string, string) (<-chan string, <-chan error) {
	return func(ctx context.Context, _, _ string) (<-chan string, <-chan error) {
		out := make(chan string, len(deltas)+1)
		errCh := make(chan error, 1)
		go func() {
			defer close(out)
			defer close(errCh)
			for _, d := range deltas {
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errCh <- err
			}
		}()
		return out, errCh
	}
}

// collect drains the event channel until it closes, failing the test if
// the run does not finish promptly.
func collect(t *testing.T, events <-chan domain.StreamEvent) []domain.StreamEvent {
	t.Helper()
	var got []domain.StreamEvent
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, e)
		case <-deadline:
			t.Fatalf("run did not finish, got %d events so far", len(got))
		}
	}
}
