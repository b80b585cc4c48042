package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/skillbridge/skillbridge/internal/ratelimit"
	"github.com/skillbridge/skillbridge/internal/storage/sqlite"
	"github.com/skillbridge/skillbridge/internal/suggest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.Open(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	// nil provider routes suggestions through the deterministic matcher.
	suggester := suggest.NewService(nil, logger)

	srv := NewServer(Config{ListenAddr: "127.0.0.1:0"}, store, suggester, nil, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// do issues a JSON request and decodes the response body into out (if non-nil).
func do(t *testing.T, method, url, profileID string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if profileID != "" {
		req.Header.Set("X-Profile-ID", profileID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decoding %s %s response %q: %v", method, url, data, err)
		}
	}
	return resp.StatusCode
}

func createProfile(t *testing.T, ts *httptest.Server, name, role string, skills ...SkillInput) ProfileResponse {
	t.Helper()
	var resp ProfileResponse
	code := do(t, http.MethodPost, ts.URL+"/v1/profiles", "", ProfileRequest{
		Name:         name,
		Country:      "Italy",
		Role:         role,
		BusinessUnit: "Engineering",
		Skills:       skills,
	}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("profile create status = %d", code)
	}
	return resp
}

func TestProfileLifecycle(t *testing.T) {
	ts := newTestServer(t)

	created := createProfile(t, ts, "Anna", "Frontend Developer", SkillInput{Name: "React", Rating: 5})

	var fetched ProfileResponse
	if code := do(t, http.MethodGet, ts.URL+"/v1/profiles/"+created.ID, "", nil, &fetched); code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	if fetched.Name != "Anna" || len(fetched.Skills) != 1 {
		t.Errorf("fetched = %+v", fetched)
	}

	// Update replaces the skill list wholesale.
	var updated ProfileResponse
	code := do(t, http.MethodPut, ts.URL+"/v1/profiles/"+created.ID, "", ProfileRequest{
		Name:         "Anna",
		Country:      "Italy",
		Role:         "Fullstack Developer",
		BusinessUnit: "Engineering",
		Skills:       []SkillInput{{Name: "Go", Rating: 4}, {Name: "SQL", Rating: 3}},
	}, &updated)
	if code != http.StatusOK {
		t.Fatalf("update status = %d", code)
	}
	if updated.Role != "Fullstack Developer" || len(updated.Skills) != 2 {
		t.Errorf("updated = %+v", updated)
	}

	var listed []ProfileResponse
	if code := do(t, http.MethodGet, ts.URL+"/v1/profiles", "", nil, &listed); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(listed) != 1 {
		t.Errorf("listed %d profiles, want 1", len(listed))
	}
}

func TestProfileValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		req  ProfileRequest
	}{
		{"missing name", ProfileRequest{Country: "Italy", Role: "Dev", BusinessUnit: "Eng", Skills: []SkillInput{{Name: "Go", Rating: 3}}}},
		{"no skills", ProfileRequest{Name: "X", Country: "Italy", Role: "Dev", BusinessUnit: "Eng"}},
		{"rating out of range", ProfileRequest{Name: "X", Country: "Italy", Role: "Dev", BusinessUnit: "Eng", Skills: []SkillInput{{Name: "Go", Rating: 6}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code := do(t, http.MethodPost, ts.URL+"/v1/profiles", "", tc.req, nil); code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", code)
			}
		})
	}
}

func TestProfileNotFound(t *testing.T) {
	ts := newTestServer(t)
	if code := do(t, http.MethodGet, ts.URL+"/v1/profiles/00000000-0000-0000-0000-000000000001", "", nil, nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestChallengeCreateRunsSuggestions(t *testing.T) {
	ts := newTestServer(t)

	creator := createProfile(t, ts, "Marco", "Product Manager", SkillInput{Name: "Agile", Rating: 4})
	expert := createProfile(t, ts, "Anna", "Frontend Developer", SkillInput{Name: "React", Rating: 5})

	var ch ChallengeResponse
	code := do(t, http.MethodPost, ts.URL+"/v1/challenges", creator.ID, ChallengeRequest{
		Title:       "Rebuild the portal in React",
		Description: "Migrate the legacy portal to a react frontend",
	}, &ch)
	if code != http.StatusCreated {
		t.Fatalf("challenge create status = %d", code)
	}
	if ch.Status != "ongoing" || ch.Type != "public" {
		t.Errorf("challenge = %+v", ch)
	}
	if len(ch.Participants) != 1 || ch.Participants[0] != creator.ID {
		t.Errorf("participants = %v, want creator only", ch.Participants)
	}

	// The deterministic matcher should pick the React expert.
	found := false
	for _, id := range ch.SuggestedProfiles {
		if id == expert.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("suggested = %v, want %s included", ch.SuggestedProfiles, expert.ID)
	}
}

func TestChallengeCreateRequiresIdentity(t *testing.T) {
	ts := newTestServer(t)
	code := do(t, http.MethodPost, ts.URL+"/v1/challenges", "", ChallengeRequest{
		Title:       "No identity",
		Description: "anonymous",
	}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestChallengeJoinLeaveComplete(t *testing.T) {
	ts := newTestServer(t)

	creator := createProfile(t, ts, "Marco", "PM", SkillInput{Name: "Agile", Rating: 4})
	member := createProfile(t, ts, "Anna", "Dev", SkillInput{Name: "Go", Rating: 5})

	var ch ChallengeResponse
	do(t, http.MethodPost, ts.URL+"/v1/challenges", creator.ID, ChallengeRequest{
		Title:       "Build a service",
		Description: "A golang backend",
	}, &ch)

	base := ts.URL + "/v1/challenges/" + ch.ID

	// Join, idempotently.
	var joined ChallengeResponse
	if code := do(t, http.MethodPost, base+"/join", member.ID, nil, &joined); code != http.StatusOK {
		t.Fatalf("join status = %d", code)
	}
	if len(joined.Participants) != 2 {
		t.Fatalf("participants = %v", joined.Participants)
	}
	do(t, http.MethodPost, base+"/join", member.ID, nil, &joined)
	if len(joined.Participants) != 2 {
		t.Errorf("second join must be idempotent, participants = %v", joined.Participants)
	}

	// Creator cannot leave.
	if code := do(t, http.MethodPost, base+"/leave", creator.ID, nil, nil); code != http.StatusBadRequest {
		t.Errorf("creator leave status = %d, want 400", code)
	}

	// Non-creator cannot complete.
	if code := do(t, http.MethodPost, base+"/complete", member.ID, CompleteRequest{}, nil); code != http.StatusForbidden {
		t.Errorf("member complete status = %d, want 403", code)
	}

	// Creator completes with a rating for the member.
	var completed ChallengeResponse
	code := do(t, http.MethodPost, base+"/complete", creator.ID, CompleteRequest{
		Ratings: []RatingInput{{ProfileID: member.ID, Rating: 5}},
	}, &completed)
	if code != http.StatusOK {
		t.Fatalf("complete status = %d", code)
	}
	if completed.Status != "completed" {
		t.Errorf("status = %q", completed.Status)
	}

	// Terminal state: no re-completion, no joining, no new messages.
	if code := do(t, http.MethodPost, base+"/complete", creator.ID, CompleteRequest{}, nil); code != http.StatusConflict {
		t.Errorf("re-complete status = %d, want 409", code)
	}
	if code := do(t, http.MethodPost, base+"/join", member.ID, nil, nil); code != http.StatusConflict {
		t.Errorf("join completed status = %d, want 409", code)
	}
	if code := do(t, http.MethodPost, base+"/messages", member.ID, MessageRequest{Content: "late"}, nil); code != http.StatusConflict {
		t.Errorf("message on completed status = %d, want 409", code)
	}

	// The member now appears on the leaderboard: 1 completed (10) + avg 5 * 5 = 35.
	var board []LeaderboardEntryResponse
	if code := do(t, http.MethodGet, ts.URL+"/v1/leaderboard", "", nil, &board); code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", code)
	}
	foundMember := false
	for _, entry := range board {
		if entry.Profile.ID == member.ID {
			foundMember = true
			if entry.Score != 35 {
				t.Errorf("member score = %v, want 35", entry.Score)
			}
		}
	}
	if !foundMember {
		t.Error("member missing from leaderboard")
	}

	// Stats endpoint agrees.
	var stats ProfileStatsResponse
	do(t, http.MethodGet, ts.URL+"/v1/profiles/"+member.ID+"/stats", "", nil, &stats)
	if stats.CompletedChallenges != 1 || stats.AverageRating != 5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestChallengeCompleteRejectsNonParticipantRating(t *testing.T) {
	ts := newTestServer(t)

	creator := createProfile(t, ts, "Marco", "PM", SkillInput{Name: "Agile", Rating: 4})
	outsider := createProfile(t, ts, "Luca", "Dev", SkillInput{Name: "Go", Rating: 2})

	var ch ChallengeResponse
	do(t, http.MethodPost, ts.URL+"/v1/challenges", creator.ID, ChallengeRequest{
		Title:       "Solo effort",
		Description: "just the creator",
	}, &ch)

	code := do(t, http.MethodPost, ts.URL+"/v1/challenges/"+ch.ID+"/complete", creator.ID, CompleteRequest{
		Ratings: []RatingInput{{ProfileID: outsider.ID, Rating: 4}},
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestChallengeMessages(t *testing.T) {
	ts := newTestServer(t)

	creator := createProfile(t, ts, "Marco", "PM", SkillInput{Name: "Agile", Rating: 4})

	var ch ChallengeResponse
	do(t, http.MethodPost, ts.URL+"/v1/challenges", creator.ID, ChallengeRequest{
		Title:       "Chatty",
		Description: "with messages",
	}, &ch)

	base := ts.URL + "/v1/challenges/" + ch.ID + "/messages"

	var msg MessageResponse
	if code := do(t, http.MethodPost, base, creator.ID, MessageRequest{Content: "kickoff at noon"}, &msg); code != http.StatusCreated {
		t.Fatalf("message create status = %d", code)
	}
	if msg.SenderProfileID != creator.ID {
		t.Errorf("sender = %q", msg.SenderProfileID)
	}

	var listed []MessageResponse
	if code := do(t, http.MethodGet, base, "", nil, &listed); code != http.StatusOK {
		t.Fatalf("message list status = %d", code)
	}
	if len(listed) != 1 || listed[0].Content != "kickoff at noon" {
		t.Errorf("listed = %+v", listed)
	}
}

func TestChallengeStatusFilterAndDetail(t *testing.T) {
	ts := newTestServer(t)

	creator := createProfile(t, ts, "Marco", "PM", SkillInput{Name: "Agile", Rating: 4})
	expert := createProfile(t, ts, "Anna", "Dev", SkillInput{Name: "React", Rating: 5})

	var ch ChallengeResponse
	do(t, http.MethodPost, ts.URL+"/v1/challenges", creator.ID, ChallengeRequest{
		Title:       "React dashboard",
		Description: "frontend work in react",
	}, &ch)

	var ongoing []ChallengeResponse
	if code := do(t, http.MethodGet, ts.URL+"/v1/challenges/status/ongoing", "", nil, &ongoing); code != http.StatusOK {
		t.Fatalf("status filter code = %d", code)
	}
	if len(ongoing) != 1 {
		t.Errorf("ongoing = %d, want 1", len(ongoing))
	}
	if code := do(t, http.MethodGet, ts.URL+"/v1/challenges/status/bogus", "", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bogus status code = %d, want 400", code)
	}

	var detail ChallengeDetailResponse
	if code := do(t, http.MethodGet, ts.URL+"/v1/challenges/"+ch.ID, "", nil, &detail); code != http.StatusOK {
		t.Fatalf("detail code = %d", code)
	}
	if len(detail.SuggestedProfileDetails) == 0 {
		t.Fatal("expected suggested profile details")
	}
	if detail.SuggestedProfileDetails[0].ID != expert.ID {
		t.Errorf("top suggested = %q, want %q", detail.SuggestedProfileDetails[0].ID, expert.ID)
	}
}

func TestSimilarProfiles(t *testing.T) {
	ts := newTestServer(t)

	anna := createProfile(t, ts, "Anna", "Dev", SkillInput{Name: "React", Rating: 5})
	createProfile(t, ts, "Luca", "Dev", SkillInput{Name: "React", Rating: 4})
	createProfile(t, ts, "Sara", "Designer", SkillInput{Name: "Figma", Rating: 5})

	var similar []SimilarProfileResponse
	if code := do(t, http.MethodGet, ts.URL+"/v1/profiles/"+anna.ID+"/similar", "", nil, &similar); code != http.StatusOK {
		t.Fatalf("similar status = %d", code)
	}
	for _, sp := range similar {
		if sp.Profile.ID == anna.ID {
			t.Error("similar list must not include the profile itself")
		}
	}
	if len(similar) == 0 || similar[0].Profile.Name != "Luca" {
		t.Errorf("similar = %+v, want Luca first", similar)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	expert := createProfile(t, ts, "Anna", "Dev", SkillInput{Name: "Kubernetes", Rating: 5})
	createProfile(t, ts, "Sara", "Designer", SkillInput{Name: "Figma", Rating: 5})

	var resp SuggestionsResponse
	code := do(t, http.MethodPost, ts.URL+"/v1/suggestions", "", SuggestionsRequest{
		Title:       "Cluster migration",
		Description: "Move workloads to kubernetes",
	}, &resp)
	if code != http.StatusOK {
		t.Fatalf("suggestions status = %d", code)
	}
	if len(resp.SuggestedProfiles) != 1 || resp.SuggestedProfiles[0].ID != expert.ID {
		t.Errorf("suggested = %+v, want only Anna", resp.SuggestedProfiles)
	}

	if code := do(t, http.MethodPost, ts.URL+"/v1/suggestions", "", SuggestionsRequest{}, nil); code != http.StatusBadRequest {
		t.Errorf("empty input status = %d, want 400", code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	var health HealthResponse
	if code := do(t, http.MethodGet, ts.URL+"/healthz", "", nil, &health); code != http.StatusOK || health.Status != "ok" {
		t.Errorf("healthz = %d %+v", code, health)
	}
	if code := do(t, http.MethodGet, ts.URL+"/readyz", "", nil, nil); code != http.StatusOK {
		t.Errorf("readyz = %d", code)
	}
}

func TestRateLimiting(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 60, BurstSize: 2})
	srv := NewServer(Config{ListenAddr: "127.0.0.1:0"}, store, suggest.NewService(nil, logger), limiter, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	profileID := "11111111-1111-1111-1111-111111111111"
	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, http.MethodPost, ts.URL+"/v1/suggestions", profileID, SuggestionsRequest{Title: fmt.Sprintf("t%d", i)}, nil)
	}
	if codes[0] == http.StatusTooManyRequests || codes[1] == http.StatusTooManyRequests {
		t.Errorf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}
