// Package suggest implements the profile suggestion pipeline that runs when
// a challenge is created: an LLM picks the best-matching profiles, with a
// deterministic keyword matcher as fallback. The pipeline never fails — any
// LLM problem (no credentials, timeout, unparsable reply) degrades to the
// fallback, so challenge creation always succeeds.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/llm"
)

const (
	// defaultTimeout bounds the LLM round-trip; the fallback takes over
	// when it expires.
	defaultTimeout = 10 * time.Second

	// prefilterThreshold is the profile count above which candidates are
	// pre-filtered before prompting, to keep token usage bounded.
	prefilterThreshold = 100

	// maxSuggestions caps how many profiles the LLM may pick.
	maxSuggestions = 10

	completionMaxTokens = 200
	completionTemp      = 0.3
)

// Recorder reports which path produced a suggestion set and how the LLM
// round-trips went. Implemented by the observability metrics; nil is allowed.
type Recorder interface {
	RecordSuggestion(source string)
	RecordLLMRequest(provider string, err error, elapsed time.Duration)
}

// Suggestion sources reported to the Recorder.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Service computes suggested profiles for a challenge.
type Service struct {
	provider llm.Provider // nil when no credentials are configured
	logger   *slog.Logger
	recorder Recorder
	timeout  time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithTimeout overrides the LLM round-trip timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithRecorder sets the suggestion outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates the suggestion service. A nil provider is valid and
// routes every request to the deterministic fallback.
func NewService(provider llm.Provider, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		logger:   logger,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SuggestProfiles returns the profiles best suited for a challenge described
// by title and description. It never returns an error: when the LLM path is
// unavailable or misbehaves the deterministic fallback answers instead.
func (s *Service) SuggestProfiles(ctx context.Context, title, description string, profiles []domain.Profile) []domain.Profile {
	if len(profiles) == 0 {
		return nil
	}

	if s.provider == nil {
		s.logger.DebugContext(ctx, "no llm provider configured, using deterministic matcher")
		return s.fallback(ctx, title, description, profiles)
	}

	suggestions, err := s.suggestWithLLM(ctx, title, description, profiles)
	if err != nil {
		s.logger.WarnContext(ctx, "llm suggestion failed, using deterministic matcher",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
		return s.fallback(ctx, title, description, profiles)
	}

	s.record(SourceLLM)
	s.logger.InfoContext(ctx, "profiles suggested",
		slog.String("source", SourceLLM),
		slog.Int("count", len(suggestions)),
	)
	return suggestions
}

func (s *Service) suggestWithLLM(ctx context.Context, title, description string, profiles []domain.Profile) ([]domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt, err := buildPrompt(title, description, profiles)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	start := time.Now()
	resp, err := s.provider.Complete(ctx, &llm.Request{
		Prompt:      prompt,
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemp,
	})
	s.recordLLM(s.provider.Name(), err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("completing: %w", err)
	}

	indices, err := parseIndices(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing indices from %q: %w", resp.Content, err)
	}

	// Out-of-range indices are dropped rather than treated as errors.
	suggestions := make([]domain.Profile, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(profiles) {
			suggestions = append(suggestions, profiles[idx])
		}
	}
	return suggestions, nil
}

func (s *Service) fallback(ctx context.Context, title, description string, profiles []domain.Profile) []domain.Profile {
	suggestions := FallbackSuggest(title, description, profiles)
	s.record(SourceFallback)
	s.logger.InfoContext(ctx, "profiles suggested",
		slog.String("source", SourceFallback),
		slog.Int("count", len(suggestions)),
	)
	return suggestions
}

func (s *Service) record(source string) {
	if s.recorder != nil {
		s.recorder.RecordSuggestion(source)
	}
}

func (s *Service) recordLLM(provider string, err error, elapsed time.Duration) {
	if s.recorder != nil {
		s.recorder.RecordLLMRequest(provider, err, elapsed)
	}
}

// parseIndices extracts a JSON integer array from the model's reply. Models
// occasionally wrap the array in prose or code fences, so it parses the
// outermost bracketed slice instead of the raw text.
func parseIndices(content string) ([]int, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found")
	}
	var indices []int
	if err := json.Unmarshal([]byte(content[start:end+1]), &indices); err != nil {
		return nil, err
	}
	if len(indices) > maxSuggestions {
		indices = indices[:maxSuggestions]
	}
	return indices, nil
}
