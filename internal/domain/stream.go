package domain

import "encoding/json"

// EventType tags a stream event frame.
type EventType string

// Stream event tags as they appear on the wire.
const (
	EventMemory      EventType = "memory"
	EventSearch      EventType = "search"
	EventSearchError EventType = "search_error"
	EventChunk       EventType = "chunk"
	EventError       EventType = "error"
	EventDone        EventType = "done"
)

// StreamEvent is one frame of an orchestration run. Exactly one Done or
// Error frame terminates a run; Memory, Search and SearchError appear at
// most once per run, Chunk may repeat.
type StreamEvent struct {
	Type     EventType
	Memories []string
	Results  []SearchRef
	Text     string
	Err      string
	Elapsed  int64 // milliseconds, Done only
}

// Terminal reports whether the event ends a run.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// MarshalJSON emits the per-type wire frame. Each variant carries only its
// own payload field so frames stay byte-stable for clients.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	type frame struct {
		Type     EventType   `json:"type"`
		Memories []string    `json:"memories,omitempty"`
		Results  []SearchRef `json:"results,omitempty"`
		Text     string      `json:"text,omitempty"`
		Err      string      `json:"error,omitempty"`
	}
	switch e.Type {
	case EventMemory:
		return json.Marshal(frame{Type: e.Type, Memories: e.Memories})
	case EventSearch:
		return json.Marshal(frame{Type: e.Type, Results: e.Results})
	case EventSearchError, EventError:
		return json.Marshal(frame{Type: e.Type, Err: e.Err})
	case EventChunk:
		// text must survive even when empty is impossible upstream,
		// so no omitempty on this variant
		return json.Marshal(struct {
			Type EventType `json:"type"`
			Text string    `json:"text"`
		}{e.Type, e.Text})
	case EventDone:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Elapsed int64     `json:"elapsed"`
		}{e.Type, e.Elapsed})
	default:
		return json.Marshal(frame{Type: e.Type})
	}
}

// MemoryEvent builds the single memory frame of a run.
func MemoryEvent(lines []string) StreamEvent {
	return StreamEvent{Type: EventMemory, Memories: lines}
}

// SearchEvent builds the single search frame of a run.
func SearchEvent(refs []SearchRef) StreamEvent {
	return StreamEvent{Type: EventSearch, Results: refs}
}

// SearchErrorEvent surfaces a failed search stage to the client.
func SearchErrorEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventSearchError, Err: msg}
}

// ChunkEvent carries one model text delta.
func ChunkEvent(text string) StreamEvent {
	return StreamEvent{Type: EventChunk, Text: text}
}

// ErrorEvent terminates a run after a streaming failure.
func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventError, Err: msg}
}

// DoneEvent terminates a run normally with the streaming stage duration.
func DoneEvent(elapsedMS int64) StreamEvent {
	return StreamEvent{Type: EventDone, Elapsed: elapsedMS}
}
