package chat

import (
	"fmt"
	"strings"

	"github.com/promethia-ai/promethia/internal/domain"
)

// memoryLines formats similarity hits for the memory frame and the
// grounding context. The score rendering is part of the wire contract.
func memoryLines(matches []domain.MemoryMatch) []string {
	if len(matches) == 0 {
		return nil
	}
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("Memory: %s (score=%.3f)", m.Text, m.Score)
	}
	return lines
}

// numberedSources renders results as a 1-based numbered list so the model
// can cite them by position.
func numberedSources(results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%d. %s — %s\n%s", i+1, r.Title, r.URL, r.Snippet)
	}
	return strings.Join(parts, "\n\n")
}

// groundingContext joins memory lines and numbered sources into the block
// inserted into prompts. Empty sections are dropped entirely.
func groundingContext(memories []string, results []domain.SearchResult) string {
	var parts []string
	if len(memories) > 0 {
		parts = append(parts, "Relevant memories:\n"+strings.Join(memories, "\n"))
	}
	if len(results) > 0 {
		parts = append(parts, "Top web sources:\n"+numberedSources(results))
	}
	return strings.Join(parts, "\n\n")
}

// groundedPrompt is the streaming-run prompt: answer from context, cite by
// list position.
func groundedPrompt(grounding, prompt string) string {
	return fmt.Sprintf("You are Promethia, an expert assistant. Use the following context (memories + web sources) to ground your answer and cite sources when stating facts. If sources contradict, say so.\n\n%s\n\nUser question: %s\nProvide a clear answer and cite sources inline (use [1], [2] referencing the numbered results above).", grounding, prompt)
}

// answerPrompt is the one-shot variant without the inline-citation coda.
func answerPrompt(grounding, prompt string) string {
	return fmt.Sprintf("You are Promethia, an expert assistant. Use the following context to ground your answer and cite sources.\n\n%s\n\nUser question: %s", grounding, prompt)
}

// queryGenPrompt asks the model for verification search queries as a JSON
// array, parsed leniently by the caller.
func queryGenPrompt(claim string) string {
	return fmt.Sprintf("Generate 3 concise web search queries for verifying this claim: %q. Output as JSON array.", claim)
}

// verifyPrompt asks for a structured verdict over gathered evidence.
func verifyPrompt(claim, grounding string) string {
	return fmt.Sprintf(`You are a fact-checker. Verify the claim: %q. Use the following snippets as evidence:

%s

Respond with JSON: {"claim":"...","verdict":"true|false|partially true|unverifiable","explanation":"...","sources":[{"title":"...","url":"..."}]}`, claim, grounding)
}

func toRefs(results []domain.SearchResult) []domain.SearchRef {
	refs := make([]domain.SearchRef, len(results))
	for i, r := range results {
		refs[i] = r.Ref()
	}
	return refs
}
