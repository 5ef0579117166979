// Package chat is the retrieval-augmented orchestrator: moderation gate,
// concurrent memory and web retrieval, deterministic prompt composition,
// then a streamed model answer relayed as typed events.
//
// Stage failure policy: a moderation outage fails open, a memory failure
// degrades silently to an empty memory context, a search failure degrades
// visibly via a search_error frame, and a streaming failure terminates the
// run with an error frame while keeping chunks already sent.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promethia-ai/promethia/internal/domain"
	"github.com/promethia-ai/promethia/internal/logger"
	"github.com/promethia-ai/promethia/internal/metrics"
	"github.com/promethia-ai/promethia/internal/usecase/search"
)

const (
	defaultMemoryTopK = 4
	defaultSearchSize = 6

	// verify caps
	maxVerifyQueries = 5
	verifyQuerySize  = 5
	maxEvidence      = 8
	fallbackSources  = 3

	// eventBuffer decouples stage emission from a slow client without
	// letting an abandoned run pile up frames.
	eventBuffer = 32
)

// memoryNamespace tags prompts captured from the non-streaming endpoint.
const memoryNamespace = "user"

// Config carries orchestrator tuning from the config file.
type Config struct {
	DefaultModel string
	MemoryTopK   int
	SearchSize   int
}

// Service runs grounded generation: streaming, one-shot and verification.
type Service struct {
	gate     Gate
	memories Memories
	searcher Searcher
	model    Completer

	defaultModel string
	memoryTopK   int
	searchSize   int
}

// NewService wires the orchestrator. Zero Config values fall back to
// built-in defaults.
func NewService(gate Gate, memories Memories, searcher Searcher, model Completer, cfg Config) *Service {
	if cfg.MemoryTopK <= 0 {
		cfg.MemoryTopK = defaultMemoryTopK
	}
	if cfg.SearchSize <= 0 {
		cfg.SearchSize = defaultSearchSize
	}
	return &Service{
		gate:         gate,
		memories:     memories,
		searcher:     searcher,
		model:        model,
		defaultModel: cfg.DefaultModel,
		memoryTopK:   cfg.MemoryTopK,
		searchSize:   cfg.SearchSize,
	}
}

// Run starts an orchestration run and returns its event stream. The
// moderation gate runs synchronously: a blocked prompt returns
// domain.ErrModerationBlocked and no channel, so a blocked run never
// emits a single frame. After a successful gate the returned channel
// delivers at most one memory frame, exactly one search or search_error
// frame, zero or more chunk frames, and a terminal done or error frame,
// in that order. Cancelling ctx stops the run; the channel is always
// closed.
func (s *Service) Run(ctx context.Context, prompt, model string) (<-chan domain.StreamEvent, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrEmptyPrompt
	}
	if model == "" {
		model = s.defaultModel
	}

	if err := s.moderate(ctx, prompt); err != nil {
		return nil, err
	}

	events := make(chan domain.StreamEvent, eventBuffer)
	go s.run(ctx, events, prompt, model)
	return events, nil
}

// moderate applies the gate, failing open when the check itself errors.
func (s *Service) moderate(ctx context.Context, prompt string) error {
	decision, err := s.gate.Check(ctx, prompt)
	if err != nil {
		logger.FromContext(ctx).Warn("moderation check failed, continuing", zap.Error(err))
		metrics.StageDegradationsTotal.WithLabelValues("moderation").Inc()
		return nil
	}
	if !decision.Allowed {
		metrics.StreamRunsTotal.WithLabelValues("blocked").Inc()
		return fmt.Errorf("%w: %s", domain.ErrModerationBlocked, decision.Reason)
	}
	return nil
}

func (s *Service) run(ctx context.Context, events chan<- domain.StreamEvent, prompt, model string) {
	defer close(events)
	log := logger.FromContext(ctx)

	emit := func(e domain.StreamEvent) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	memories, results, searchErr := s.retrieve(ctx, prompt)
	if ctx.Err() != nil {
		metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
		return
	}

	if len(memories) > 0 {
		if !emit(domain.MemoryEvent(memories)) {
			metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
			return
		}
	}
	if searchErr != nil {
		if !emit(domain.SearchErrorEvent(searchErr.Error())) {
			metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
			return
		}
	} else if !emit(domain.SearchEvent(toRefs(results))) {
		metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
		return
	}

	grounded := groundedPrompt(groundingContext(memories, results), prompt)

	start := time.Now()
	out, errCh := s.model.Stream(ctx, model, grounded)
	for delta := range out {
		if !emit(domain.ChunkEvent(delta)) {
			metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
			return
		}
		metrics.StreamChunksTotal.Inc()
	}
	if ctx.Err() != nil {
		metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
		return
	}
	if err := <-errCh; err != nil {
		if ctx.Err() != nil {
			metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
			return
		}
		log.Error("model stream failed", zap.Error(err))
		emit(domain.ErrorEvent(err.Error()))
		metrics.StreamRunsTotal.WithLabelValues("error").Inc()
		return
	}

	if !emit(domain.DoneEvent(time.Since(start).Milliseconds())) {
		metrics.StreamRunsTotal.WithLabelValues("cancelled").Inc()
		return
	}
	metrics.StreamRunsTotal.WithLabelValues("done").Inc()
}

// retrieve runs memory lookup and web search concurrently. A memory
// failure yields empty lines, a search failure is returned for the
// caller to surface.
func (s *Service) retrieve(ctx context.Context, prompt string) ([]string, []domain.SearchResult, error) {
	var (
		memories  []string
		results   []domain.SearchResult
		searchErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		matches, err := s.memories.Query(ctx, prompt, s.memoryTopK)
		if err != nil {
			logger.FromContext(ctx).Warn("memory lookup failed", zap.Error(err))
			metrics.StageDegradationsTotal.WithLabelValues("memory").Inc()
			return
		}
		memories = memoryLines(matches)
	}()
	go func() {
		defer wg.Done()
		found, err := s.searcher.Search(ctx, prompt, s.searchSize)
		if err != nil {
			logger.FromContext(ctx).Warn("web search failed", zap.Error(err))
			metrics.StageDegradationsTotal.WithLabelValues("search").Inc()
			searchErr = err
			return
		}
		results = found
	}()
	wg.Wait()

	return memories, results, searchErr
}

// Answer is the one-shot variant of Run: same gate and retrieval, a
// single completion instead of a stream, and a best-effort capture of
// the prompt into the memory store for future retrieval.
func (s *Service) Answer(ctx context.Context, prompt, model string) (string, []domain.SearchRef, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", nil, domain.ErrEmptyPrompt
	}
	if model == "" {
		model = s.defaultModel
	}

	if err := s.moderate(ctx, prompt); err != nil {
		return "", nil, err
	}

	memories, results, _ := s.retrieve(ctx, prompt)

	text, err := s.model.Complete(ctx, model, answerPrompt(groundingContext(memories, results), prompt))
	if err != nil {
		return "", nil, err
	}

	if _, err := s.memories.Store(ctx, memoryNamespace, prompt); err != nil {
		logger.FromContext(ctx).Warn("prompt capture failed", zap.Error(err))
	}

	return text, toRefs(results), nil
}

// Verify fact-checks a claim: generate search queries when the caller
// supplied none, gather and rank evidence across all queries, then ask
// the model for a structured verdict. An unparseable verdict degrades to
// "unverifiable" with the raw model text as explanation.
func (s *Service) Verify(ctx context.Context, claim string, queries []string) (domain.Verification, []domain.SearchRef, error) {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return domain.Verification{}, nil, domain.ErrEmptyClaim
	}
	log := logger.FromContext(ctx)

	if len(queries) == 0 {
		queries = s.generateQueries(ctx, claim)
	}
	if len(queries) > maxVerifyQueries {
		queries = queries[:maxVerifyQueries]
	}

	var gathered []domain.SearchResult
	for _, q := range queries {
		found, err := s.searcher.Search(ctx, q, verifyQuerySize)
		if err != nil {
			log.Warn("evidence search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		gathered = append(gathered, found...)
	}
	evidence := search.Rank(gathered)
	if len(evidence) > maxEvidence {
		evidence = evidence[:maxEvidence]
	}

	out, err := s.model.Complete(ctx, s.defaultModel, verifyPrompt(claim, numberedSources(evidence)))
	if err != nil {
		return domain.Verification{}, nil, err
	}

	var verdict domain.Verification
	if err := json.Unmarshal([]byte(out), &verdict); err != nil {
		n := len(evidence)
		if n > fallbackSources {
			n = fallbackSources
		}
		verdict = domain.Verification{
			Claim:       claim,
			Verdict:     "unverifiable",
			Explanation: out,
			Sources:     toRefs(evidence[:n]),
		}
	}
	return verdict, toRefs(evidence), nil
}

// generateQueries asks the model for search queries; any trouble falls
// back to searching the claim verbatim.
func (s *Service) generateQueries(ctx context.Context, claim string) []string {
	out, err := s.model.Complete(ctx, s.defaultModel, queryGenPrompt(claim))
	if err != nil {
		logger.FromContext(ctx).Warn("query generation failed", zap.Error(err))
		return []string{claim}
	}
	var queries []string
	if err := json.Unmarshal([]byte(out), &queries); err != nil || len(queries) == 0 {
		return []string{claim}
	}
	return queries
}
