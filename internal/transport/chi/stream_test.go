package chi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promethia-ai/promethia/internal/domain"
)

func doStream(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeFrames(t *testing.T, body string) []map[string]any {
	t.Helper()
	var frames []map[string]any
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var frame map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &frame), "frame: %s", line)
		frames = append(frames, frame)
	}
	return frames
}

func TestStreamPromptFullRun(t *testing.T) {
	mem := &stubMemories{query: func(_ context.Context, _ string, _ int) ([]domain.MemoryMatch, error) {
		return []domain.MemoryMatch{{
			MemoryRecord: domain.MemoryRecord{ID: 1, Text: "likes go"},
			Score:        0.905,
		}}, nil
	}}
	srch := &stubSearcher{search: func(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
		return []domain.SearchResult{{Title: "Go", URL: "https://go.dev", Snippet: "docs"}}, nil
	}}
	model := &stubCompleter{deltas: []string{"Hello", " world"}}
	srv := newTestServer(newChatService(nil, mem, srch, model))

	rr := doStream(t, srv, "/v1/stream-prompt?prompt=tell+me")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/x-ndjson", rr.Header().Get("Content-Type"))

	frames := decodeFrames(t, rr.Body.String())
	require.Len(t, frames, 5)

	assert.Equal(t, "memory", frames[0]["type"])
	assert.Equal(t, []any{"Memory: likes go (score=0.905)"}, frames[0]["memories"])

	assert.Equal(t, "search", frames[1]["type"])
	results := frames[1]["results"].([]any)
	require.Len(t, results, 1)
	hit := results[0].(map[string]any)
	assert.Equal(t, "Go", hit["title"])
	assert.Equal(t, "https://go.dev", hit["url"])
	assert.Equal(t, "docs", hit["snippet"])

	assert.Equal(t, "chunk", frames[2]["type"])
	assert.Equal(t, "Hello", frames[2]["text"])
	assert.Equal(t, "chunk", frames[3]["type"])
	assert.Equal(t, " world", frames[3]["text"])

	assert.Equal(t, "done", frames[4]["type"])
	_, hasElapsed := frames[4]["elapsed"]
	assert.True(t, hasElapsed, "done frame must carry elapsed")
}

func TestStreamPromptModerationBlocked(t *testing.T) {
	gate := &stubGate{check: func(_ context.Context, _ string) (domain.Decision, error) {
		return domain.Decision{Allowed: false, Reason: "hate"}, nil
	}}
	srv := newTestServer(newChatService(gate, nil, nil, nil))

	rr := doStream(t, srv, "/v1/stream-prompt?prompt=X")
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, codeModerationBlocked, resp["code"])
	assert.Contains(t, resp["message"], "hate")
}

func TestStreamPromptMissingPrompt(t *testing.T) {
	srv := newTestServer(nil)

	rr := doStream(t, srv, "/v1/stream-prompt")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStreamPromptSearchDown(t *testing.T) {
	srch := &stubSearcher{search: func(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
		return nil, errors.New("brave down")
	}}
	model := &stubCompleter{deltas: []string{"best effort"}}
	srv := newTestServer(newChatService(nil, nil, srch, model))

	rr := doStream(t, srv, "/v1/stream-prompt?prompt=query")
	require.Equal(t, http.StatusOK, rr.Code)

	frames := decodeFrames(t, rr.Body.String())
	require.Len(t, frames, 3)
	assert.Equal(t, "search_error", frames[0]["type"])
	assert.Contains(t, frames[0]["error"], "brave down")
	assert.Equal(t, "chunk", frames[1]["type"])
	assert.Equal(t, "done", frames[2]["type"])
}

func TestStreamPromptModelError(t *testing.T) {
	model := &stubCompleter{deltas: []string{"partial"}, err: errors.New("stream cut")}
	srv := newTestServer(newChatService(nil, nil, nil, model))

	rr := doStream(t, srv, "/v1/stream-prompt?prompt=query")
	require.Equal(t, http.StatusOK, rr.Code)

	frames := decodeFrames(t, rr.Body.String())
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, "error", last["type"])
	assert.Contains(t, last["error"], "stream cut")
}
