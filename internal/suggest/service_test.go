package suggest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/llm"
)

type fakeProvider struct {
	content string
	err     error
	gotReq  *llm.Request
}

func (f *fakeProvider) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content, StopReason: "end_turn"}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type llmCall struct {
	provider string
	failed   bool
	elapsed  time.Duration
}

type fakeRecorder struct {
	sources  []string
	llmCalls []llmCall
}

func (f *fakeRecorder) RecordSuggestion(source string) {
	f.sources = append(f.sources, source)
}

func (f *fakeRecorder) RecordLLMRequest(provider string, err error, elapsed time.Duration) {
	f.llmCalls = append(f.llmCalls, llmCall{provider: provider, failed: err != nil, elapsed: elapsed})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProfiles() []domain.Profile {
	return []domain.Profile{
		{ID: uuid.New(), Name: "Anna", Role: "Frontend Developer", Skills: []domain.Skill{{Name: "React", Rating: 5}}},
		{ID: uuid.New(), Name: "Bruno", Role: "Backend Developer", Skills: []domain.Skill{{Name: "Java", Rating: 4}}},
		{ID: uuid.New(), Name: "Carla", Role: "Designer", Skills: []domain.Skill{{Name: "Figma", Rating: 5}}},
	}
}

func TestSuggestProfilesLLMPath(t *testing.T) {
	provider := &fakeProvider{content: "[2, 0]"}
	rec := &fakeRecorder{}
	svc := NewService(provider, testLogger(), WithRecorder(rec))

	got := svc.SuggestProfiles(context.Background(), "New react dashboard", "build it", testProfiles())

	if len(got) != 2 || got[0].Name != "Carla" || got[1].Name != "Anna" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
	if len(rec.sources) != 1 || rec.sources[0] != SourceLLM {
		t.Errorf("recorded sources = %v, want [llm]", rec.sources)
	}
	if len(rec.llmCalls) != 1 || rec.llmCalls[0].provider != "fake" || rec.llmCalls[0].failed {
		t.Errorf("recorded llm calls = %+v, want one successful call to fake", rec.llmCalls)
	}
	if provider.gotReq.MaxTokens != completionMaxTokens || provider.gotReq.Temperature != completionTemp {
		t.Errorf("request params = %+v", provider.gotReq)
	}
	if !strings.Contains(provider.gotReq.Prompt, "New react dashboard") {
		t.Error("prompt missing challenge title")
	}
	if !strings.Contains(provider.gotReq.Prompt, `"index": 2`) {
		t.Error("prompt missing candidate indices")
	}
}

func TestSuggestProfilesDropsOutOfRangeIndices(t *testing.T) {
	provider := &fakeProvider{content: "[0, 99, -1]"}
	svc := NewService(provider, testLogger())

	got := svc.SuggestProfiles(context.Background(), "react", "", testProfiles())
	if len(got) != 1 || got[0].Name != "Anna" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
}

func TestSuggestProfilesFallbackOnProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	rec := &fakeRecorder{}
	svc := NewService(provider, testLogger(), WithRecorder(rec))

	got := svc.SuggestProfiles(context.Background(), "react app", "", testProfiles())

	// fallback picks Anna (React 5 matches "react")
	if len(got) != 1 || got[0].Name != "Anna" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
	if len(rec.sources) != 1 || rec.sources[0] != SourceFallback {
		t.Errorf("recorded sources = %v, want [fallback]", rec.sources)
	}
	if len(rec.llmCalls) != 1 || !rec.llmCalls[0].failed {
		t.Errorf("recorded llm calls = %+v, want one failed call", rec.llmCalls)
	}
}

func TestSuggestProfilesFallbackOnGarbageReply(t *testing.T) {
	provider := &fakeProvider{content: "I cannot help with that."}
	svc := NewService(provider, testLogger())

	got := svc.SuggestProfiles(context.Background(), "react app", "", testProfiles())
	if len(got) != 1 || got[0].Name != "Anna" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
}

func TestSuggestProfilesNilProvider(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(nil, testLogger(), WithRecorder(rec))

	got := svc.SuggestProfiles(context.Background(), "react app", "", testProfiles())
	if len(got) != 1 || got[0].Name != "Anna" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
	if len(rec.sources) != 1 || rec.sources[0] != SourceFallback {
		t.Errorf("recorded sources = %v, want [fallback]", rec.sources)
	}
	if len(rec.llmCalls) != 0 {
		t.Errorf("no provider means no llm calls, got %+v", rec.llmCalls)
	}
}

func TestSuggestProfilesEmptyInput(t *testing.T) {
	svc := NewService(&fakeProvider{content: "[0]"}, testLogger())
	if got := svc.SuggestProfiles(context.Background(), "react", "", nil); got != nil {
		t.Errorf("expected nil for empty profile list, got %v", got)
	}
}

func TestParseIndices(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []int
		wantErr bool
	}{
		{"bare array", "[0, 1, 2]", []int{0, 1, 2}, false},
		{"empty array", "[]", []int{}, false},
		{"prose wrapped", "Here are my picks: [3, 1].", []int{3, 1}, false},
		{"code fence", "```json\n[4]\n```", []int{4}, false},
		{"no array", "nothing here", nil, true},
		{"not integers", `["a", "b"]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndices(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIndices: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParseIndicesCapsAtMax(t *testing.T) {
	got, err := parseIndices("[0,1,2,3,4,5,6,7,8,9,10,11]")
	if err != nil {
		t.Fatalf("parseIndices: %v", err)
	}
	if len(got) != maxSuggestions {
		t.Errorf("got %d indices, want %d", len(got), maxSuggestions)
	}
}

func TestPrefilterKeepsOriginalIndices(t *testing.T) {
	var profiles []domain.Profile
	for i := 0; i < 150; i++ {
		profiles = append(profiles, domain.Profile{ID: uuid.New(), Name: "filler"})
	}
	// the only relevant profile sits far beyond the filter cutoff
	profiles[140].Name = "Match"
	profiles[140].Skills = []domain.Skill{{Name: "React", Rating: 5}}

	provider := &fakeProvider{content: "[140]"}
	svc := NewService(provider, testLogger())

	got := svc.SuggestProfiles(context.Background(), "react rewrite", "", profiles)
	if len(got) != 1 || got[0].Name != "Match" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
	if !strings.Contains(provider.gotReq.Prompt, `"index": 140`) {
		t.Error("prompt should reference the profile by its original index")
	}
	if strings.Count(provider.gotReq.Prompt, `"name"`) != prefilterThreshold {
		t.Errorf("prompt should contain exactly %d candidates", prefilterThreshold)
	}
}
