package api

import (
	"github.com/jkaninda/okapi"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/scoring"
)

// SuggestionsRequest is the JSON body for POST /v1/suggestions.
type SuggestionsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SuggestionsResponse is the JSON response for POST /v1/suggestions.
type SuggestionsResponse struct {
	SuggestedProfiles []ProfileResponse `json:"suggested_profiles"`
}

// LeaderboardEntryResponse is one row of GET /v1/leaderboard.
type LeaderboardEntryResponse struct {
	Profile             ProfileResponse `json:"profile"`
	CompletedChallenges int             `json:"completed_challenges"`
	AverageRating       float64         `json:"average_rating"`
	Score               float64         `json:"score"`
}

func (s *Server) handleSuggestions(c *okapi.Context) error {
	if err := s.allow(c); err != nil {
		return err
	}

	var req SuggestionsRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Title == "" && req.Description == "" {
		return c.AbortBadRequest("title or description is required")
	}

	profiles, err := s.store.Profiles().List(c.Context())
	if err != nil {
		return c.AbortInternalServerError("failed to list profiles")
	}

	suggested := s.suggester.SuggestProfiles(c.Context(), req.Title, req.Description, profiles)
	return c.OK(SuggestionsResponse{SuggestedProfiles: toProfileResponses(suggested)})
}

func (s *Server) handleLeaderboard(c *okapi.Context) error {
	profiles, err := s.store.Profiles().List(c.Context())
	if err != nil {
		return c.AbortInternalServerError("failed to list profiles")
	}
	completed, err := s.store.Challenges().ListByStatus(c.Context(), domain.ChallengeCompleted)
	if err != nil {
		return c.AbortInternalServerError("failed to list challenges")
	}
	ratings, err := s.store.Ratings().List(c.Context())
	if err != nil {
		return c.AbortInternalServerError("failed to list ratings")
	}

	entries := scoring.BuildLeaderboard(profiles, completed, ratings, scoring.DefaultLeaderboardLimit)
	resp := make([]LeaderboardEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = LeaderboardEntryResponse{
			Profile:             toProfileResponse(&e.Profile),
			CompletedChallenges: e.CompletedChallenges,
			AverageRating:       e.AverageRating,
			Score:               e.Score,
		}
	}
	return c.OK(resp)
}
