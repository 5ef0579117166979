package chi

import (
	"encoding/json"
	"net/http"
)

// handleStreamPrompt handles GET /v1/stream-prompt. Frames are
// newline-delimited JSON, flushed per frame. The moderation gate runs
// before the response status is committed, so a blocked prompt is a
// plain 403 and never a partial stream.
func (s *Server) handleStreamPrompt(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	model := r.URL.Query().Get("model")

	events, err := s.chat.Run(r.Context(), prompt, model)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for event := range events {
		if err := enc.Encode(event); err != nil {
			// client disconnected mid-write, the run sees the
			// request context cancellation
			return
		}
		flusher.Flush()
	}
}
