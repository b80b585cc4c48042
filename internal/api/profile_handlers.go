package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jkaninda/okapi"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/scoring"
)

// **** Profile request/response types ****

// SkillInput is one skill in a profile create/update request.
type SkillInput struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// ProfileRequest is the JSON body for POST /v1/profiles and PUT /v1/profiles/{id}.
type ProfileRequest struct {
	Name         string       `json:"name"`
	Country      string       `json:"country"`
	Role         string       `json:"role"`
	BusinessUnit string       `json:"business_unit"`
	Description  string       `json:"description,omitempty"`
	Interests    string       `json:"interests,omitempty"`
	Photo        string       `json:"photo,omitempty"`
	Skills       []SkillInput `json:"skills"`
}

// ProfileResponse is the JSON representation of a profile.
type ProfileResponse struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Country         string       `json:"country"`
	Role            string       `json:"role"`
	BusinessUnit    string       `json:"business_unit"`
	Description     string       `json:"description,omitempty"`
	Interests       string       `json:"interests,omitempty"`
	Photo           string       `json:"photo,omitempty"`
	Skills          []SkillInput `json:"skills"`
	TotalChallenges int          `json:"total_challenges"`
	AverageRating   float64      `json:"average_rating"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// SimilarProfileResponse is one entry of GET /v1/profiles/{id}/similar.
type SimilarProfileResponse struct {
	Profile        ProfileResponse         `json:"profile"`
	Score          int                     `json:"score"`
	MatchingSkills []scoring.MatchingSkill `json:"matching_skills"`
}

// ProfileStatsResponse is the JSON response for GET /v1/profiles/{id}/stats.
type ProfileStatsResponse struct {
	ProfileID           string  `json:"profile_id"`
	CompletedChallenges int     `json:"completed_challenges"`
	AverageRating       float64 `json:"average_rating"`
	RatingsReceived     int     `json:"ratings_received"`
}

func toProfileResponse(p *domain.Profile) ProfileResponse {
	skills := make([]SkillInput, len(p.Skills))
	for i, sk := range p.Skills {
		skills[i] = SkillInput{Name: sk.Name, Rating: sk.Rating}
	}
	return ProfileResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Country:         p.Country,
		Role:            p.Role,
		BusinessUnit:    p.BusinessUnit,
		Description:     p.Description,
		Interests:       p.Interests,
		Photo:           p.Photo,
		Skills:          skills,
		TotalChallenges: p.TotalChallenges,
		AverageRating:   p.AverageRating,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toProfileResponses(profiles []domain.Profile) []ProfileResponse {
	resp := make([]ProfileResponse, len(profiles))
	for i := range profiles {
		resp[i] = toProfileResponse(&profiles[i])
	}
	return resp
}

// validateProfileRequest checks required fields and skill rating bounds.
// Returns an empty string when the request is valid.
func validateProfileRequest(req *ProfileRequest) string {
	switch {
	case req.Name == "":
		return "name is required"
	case req.Country == "":
		return "country is required"
	case req.Role == "":
		return "role is required"
	case req.BusinessUnit == "":
		return "business_unit is required"
	case len(req.Skills) == 0:
		return "at least one skill is required"
	}
	for _, sk := range req.Skills {
		if sk.Name == "" {
			return "skill name is required"
		}
		if sk.Rating < domain.SkillRatingMin || sk.Rating > domain.SkillRatingMax {
			return "skill rating must be between 1 and 5"
		}
	}
	return ""
}

func toDomainSkills(inputs []SkillInput) []domain.Skill {
	skills := make([]domain.Skill, len(inputs))
	for i, sk := range inputs {
		skills[i] = domain.Skill{Name: sk.Name, Rating: sk.Rating}
	}
	return skills
}

// **** Handlers ****

func (s *Server) handleProfileCreate(c *okapi.Context) error {
	if err := s.allow(c); err != nil {
		return err
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if msg := validateProfileRequest(&req); msg != "" {
		return c.AbortBadRequest(msg)
	}

	now := time.Now().UTC()
	p := &domain.Profile{
		ID:           uuid.New(),
		Name:         req.Name,
		Country:      req.Country,
		Role:         req.Role,
		BusinessUnit: req.BusinessUnit,
		Description:  req.Description,
		Interests:    req.Interests,
		Photo:        req.Photo,
		Skills:       toDomainSkills(req.Skills),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Profiles().Create(c.Context(), p); err != nil {
		s.logger.Error("profile creation failed", slog.String("error", err.Error()))
		return c.AbortInternalServerError("failed to create profile")
	}

	s.logger.Info("profile created",
		slog.String("profile_id", p.ID.String()),
		slog.String("name", p.Name),
	)

	return c.JSON(http.StatusCreated, toProfileResponse(p))
}

func (s *Server) handleProfileList(c *okapi.Context) error {
	profiles, err := s.store.Profiles().List(c.Context())
	if err != nil {
		return c.AbortInternalServerError("failed to list profiles")
	}
	return c.OK(toProfileResponses(profiles))
}

func (s *Server) handleProfileGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid profile ID")
	}

	p, err := s.store.Profiles().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "profile")
	}
	return c.OK(toProfileResponse(p))
}

func (s *Server) handleProfileUpdate(c *okapi.Context) error {
	if err := s.allow(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid profile ID")
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if msg := validateProfileRequest(&req); msg != "" {
		return c.AbortBadRequest(msg)
	}

	existing, err := s.store.Profiles().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "profile")
	}

	// Full replacement, skill list included. Denormalized stats survive.
	existing.Name = req.Name
	existing.Country = req.Country
	existing.Role = req.Role
	existing.BusinessUnit = req.BusinessUnit
	existing.Description = req.Description
	existing.Interests = req.Interests
	existing.Photo = req.Photo
	existing.Skills = toDomainSkills(req.Skills)
	existing.UpdatedAt = time.Now().UTC()

	if err := s.store.Profiles().Update(c.Context(), existing); err != nil {
		return notFoundOrInternal(c, err, "profile")
	}

	s.logger.Info("profile updated", slog.String("profile_id", id.String()))

	return c.OK(toProfileResponse(existing))
}

func (s *Server) handleProfileSimilar(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid profile ID")
	}

	user, err := s.store.Profiles().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "profile")
	}

	all, err := s.store.Profiles().List(c.Context())
	if err != nil {
		return c.AbortInternalServerError("failed to list profiles")
	}

	candidates := make([]domain.Profile, 0, len(all))
	for _, p := range all {
		if p.ID != user.ID {
			candidates = append(candidates, p)
		}
	}

	similar := scoring.FindSimilarProfiles(user, candidates, scoring.DefaultSimilarLimit)
	resp := make([]SimilarProfileResponse, len(similar))
	for i, sp := range similar {
		resp[i] = SimilarProfileResponse{
			Profile:        toProfileResponse(&sp.Profile),
			Score:          sp.Score,
			MatchingSkills: sp.MatchingSkills,
		}
	}
	return c.OK(resp)
}

func (s *Server) handleProfileSuggestedChallenges(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid profile ID")
	}

	user, err := s.store.Profiles().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "profile")
	}

	// Only ongoing challenges can still be joined.
	ongoing, err := s.store.Challenges().ListByStatus(c.Context(), domain.ChallengeOngoing)
	if err != nil {
		return c.AbortInternalServerError("failed to list challenges")
	}

	suggested := scoring.FindSuggestedChallenges(user, ongoing, scoring.DefaultSuggestedChallengesLimit)
	return c.OK(toChallengeResponses(suggested))
}

func (s *Server) handleProfileStats(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid profile ID")
	}

	if _, err := s.store.Profiles().Get(c.Context(), id); err != nil {
		return notFoundOrInternal(c, err, "profile")
	}

	completed, err := s.store.Challenges().ListByStatus(c.Context(), domain.ChallengeCompleted)
	if err != nil {
		return c.AbortInternalServerError("failed to list challenges")
	}
	ratings, err := s.store.Ratings().ListByProfile(c.Context(), id)
	if err != nil {
		return c.AbortInternalServerError("failed to list ratings")
	}

	total, avg := scoring.ProfileStats(id, completed, ratings)
	return c.OK(ProfileStatsResponse{
		ProfileID:           id.String(),
		CompletedChallenges: total,
		AverageRating:       avg,
		RatingsReceived:     len(ratings),
	})
}
