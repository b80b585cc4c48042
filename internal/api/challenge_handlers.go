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

// **** Challenge request/response types ****

// ChallengeRequest is the JSON body for POST /v1/challenges.
type ChallengeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type,omitempty"` // "public" (default) or "private"
}

// ChallengeResponse is the JSON representation of a challenge.
type ChallengeResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	CreatedBy         string    `json:"created_by"`
	SuggestedProfiles []string  `json:"suggested_profiles"`
	Participants      []string  `json:"participants"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ChallengeDetailResponse is the JSON response for GET /v1/challenges/{id}.
// SuggestedProfiles carries the full profiles, display-ranked against the
// challenge text.
type ChallengeDetailResponse struct {
	ChallengeResponse
	SuggestedProfileDetails []ProfileResponse `json:"suggested_profile_details"`
}

// ParticipantsRequest is the JSON body for POST /v1/challenges/{id}/participants.
type ParticipantsRequest struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// RatingInput is one participant rating in a completion request.
type RatingInput struct {
	ProfileID string `json:"profile_id"`
	Rating    int    `json:"rating"`
}

// CompleteRequest is the JSON body for POST /v1/challenges/{id}/complete.
type CompleteRequest struct {
	Ratings []RatingInput `json:"ratings,omitempty"`
}

// MessageRequest is the JSON body for POST /v1/challenges/{id}/messages.
type MessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse is the JSON representation of a chat message.
type MessageResponse struct {
	ID              string    `json:"id"`
	ChallengeID     string    `json:"challenge_id"`
	SenderProfileID string    `json:"sender_profile_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

func toChallengeResponse(ch *domain.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:                ch.ID.String(),
		Title:             ch.Title,
		Description:       ch.Description,
		Type:              string(ch.Type),
		Status:            string(ch.Status),
		CreatedBy:         ch.CreatedBy.String(),
		SuggestedProfiles: uuidsToStrings(ch.SuggestedProfiles),
		Participants:      uuidsToStrings(ch.Participants),
		CreatedAt:         ch.CreatedAt,
		UpdatedAt:         ch.UpdatedAt,
	}
}

func toChallengeResponses(challenges []domain.Challenge) []ChallengeResponse {
	resp := make([]ChallengeResponse, len(challenges))
	for i := range challenges {
		resp[i] = toChallengeResponse(&challenges[i])
	}
	return resp
}

func toMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:              m.ID.String(),
		ChallengeID:     m.ChallengeID.String(),
		SenderProfileID: m.SenderProfileID.String(),
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
	}
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// **** Handlers ****

func (s *Server) handleChallengeCreate(c *okapi.Context) error {
	profileID, err := s.requireProfile(c)
	if err != nil {
		return err
	}
	if err := s.allow(c); err != nil {
		return err
	}

	creator, err := uuid.Parse(profileID)
	if err != nil {
		return c.AbortBadRequest("invalid X-Profile-ID header")
	}

	var req ChallengeRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Title == "" {
		return c.AbortBadRequest("title is required")
	}
	if req.Description == "" {
		return c.AbortBadRequest("description is required")
	}
	challengeType := domain.ChallengePublic
	switch req.Type {
	case "", string(domain.ChallengePublic):
	case string(domain.ChallengePrivate):
		challengeType = domain.ChallengePrivate
	default:
		return c.AbortBadRequest("type must be \"public\" or \"private\"")
	}

	// Run the suggestion pipeline. It never fails; an empty candidate list
	// just yields no suggestions, and creation proceeds regardless.
	var suggestedIDs []uuid.UUID
	if profiles, listErr := s.store.Profiles().List(c.Context()); listErr != nil {
		s.logger.Warn("skipping profile suggestions, listing failed",
			slog.String("error", listErr.Error()),
		)
	} else {
		for _, p := range s.suggester.SuggestProfiles(c.Context(), req.Title, req.Description, profiles) {
			suggestedIDs = append(suggestedIDs, p.ID)
		}
	}

	now := time.Now().UTC()
	ch := &domain.Challenge{
		ID:                uuid.New(),
		Title:             req.Title,
		Description:       req.Description,
		Type:              challengeType,
		Status:            domain.ChallengeOngoing,
		CreatedBy:         creator,
		SuggestedProfiles: suggestedIDs,
		Participants:      []uuid.UUID{creator},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.Challenges().Create(c.Context(), ch); err != nil {
		s.logger.Error("challenge creation failed", slog.String("error", err.Error()))
		return c.AbortInternalServerError("failed to create challenge")
	}

	s.logger.Info("challenge created",
		slog.String("challenge_id", ch.ID.String()),
		slog.String("created_by", creator.String()),
		slog.Int("suggested", len(suggestedIDs)),
	)

	return c.JSON(http.StatusCreated, toChallengeResponse(ch))
}

func (s *Server) handleChallengeList(c *okapi.Context) error {
	challenges, err := s.store.Challenges().List(c.Context())
	if err != nil {
		return c.AbortInternalServerError("failed to list challenges")
	}
	return c.OK(toChallengeResponses(challenges))
}

func (s *Server) handleChallengeListByStatus(c *okapi.Context) error {
	status := domain.ChallengeStatus(c.Param("status"))
	if status != domain.ChallengeOngoing && status != domain.ChallengeCompleted {
		return c.AbortBadRequest("status must be \"ongoing\" or \"completed\"")
	}

	challenges, err := s.store.Challenges().ListByStatus(c.Context(), status)
	if err != nil {
		return c.AbortInternalServerError("failed to list challenges")
	}
	return c.OK(toChallengeResponses(challenges))
}

func (s *Server) handleChallengeGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid challenge ID")
	}

	ch, err := s.store.Challenges().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "challenge")
	}

	// Resolve the stored suggestion ids. Profiles deleted since the
	// suggestions were computed are skipped.
	suggested := make([]domain.Profile, 0, len(ch.SuggestedProfiles))
	for _, pid := range ch.SuggestedProfiles {
		p, getErr := s.store.Profiles().Get(c.Context(), pid)
		if getErr != nil {
			continue
		}
		suggested = append(suggested, *p)
	}
	ranked := scoring.RankSuggestedProfiles(suggested, ch.Title+" "+ch.Description)

	return c.OK(ChallengeDetailResponse{
		ChallengeResponse:       toChallengeResponse(ch),
		SuggestedProfileDetails: toProfileResponses(ranked),
	})
}

func (s *Server) handleChallengeJoin(c *okapi.Context) error {
	profileID, err := s.requireProfile(c)
	if err != nil {
		return err
	}
	if err := s.allow(c); err != nil {
		return err
	}
	joiner, err := uuid.Parse(profileID)
	if err != nil {
		return c.AbortBadRequest("invalid X-Profile-ID header")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid challenge ID")
	}

	ch, err := s.store.Challenges().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "challenge")
	}
	if ch.Completed() {
		return c.JSON(http.StatusConflict, okapi.M{"error": "challenge is completed"})
	}
	if ch.HasParticipant(joiner) {
		return c.OK(toChallengeResponse(ch)) // already in, idempotent
	}

	ch.Participants = append(ch.Participants, joiner)
	ch.UpdatedAt = time.Now().UTC()
	if err := s.store.Challenges().Update(c.Context(), ch); err != nil {
		return c.AbortInternalServerError("failed to join challenge")
	}

	s.logger.Info("challenge joined",
		slog.String("challenge_id", id.String()),
		slog.String("profile_id", joiner.String()),
	)

	return c.OK(toChallengeResponse(ch))
}

func (s *Server) handleChallengeLeave(c *okapi.Context) error {
	profileID, err := s.requireProfile(c)
	if err != nil {
		return err
	}
	if err := s.allow(c); err != nil {
		return err
	}
	leaver, err := uuid.Parse(profileID)
	if err != nil {
		return c.AbortBadRequest("invalid X-Profile-ID header")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid challenge ID")
	}

	ch, err := s.store.Challenges().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "challenge")
	}
	if ch.Completed() {
		return c.JSON(http.StatusConflict, okapi.M{"error": "challenge is completed"})
	}
	if leaver == ch.CreatedBy {
		return c.AbortBadRequest("the creator cannot leave their own challenge")
	}

	filtered := ch.Participants[:0]
	for _, pid := range ch.Participants {
		if pid != leaver {
			filtered = append(filtered, pid)
		}
	}
	ch.Participants = filtered
	ch.UpdatedAt = time.Now().UTC()
	if err := s.store.Challenges().Update(c.Context(), ch); err != nil {
		return c.AbortInternalServerError("failed to leave challenge")
	}

	s.logger.Info("challenge left",
		slog.String("challenge_id", id.String()),
		slog.String("profile_id", leaver.String()),
	)

	return c.OK(toChallengeResponse(ch))
}

func (s *Server) handleChallengeParticipants(c *okapi.Context) error {
	profileID, err := s.requireProfile(c)
	if err != nil {
		return err
	}
	if err := s.allow(c); err != nil {
		return err
	}
	actor, err := uuid.Parse(profileID)
	if err != nil {
		return c.AbortBadRequest("invalid X-Profile-ID header")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid challenge ID")
	}

	ch, err := s.store.Challenges().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "challenge")
	}
	if actor != ch.CreatedBy {
		return c.JSON(http.StatusForbidden, okapi.M{"error": "only the creator can manage participants"})
	}
	if ch.Completed() {
		return c.JSON(http.StatusConflict, okapi.M{"error": "challenge is completed"})
	}

	var req ParticipantsRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}

	for _, raw := range req.Add {
		pid, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return c.AbortBadRequest("invalid profile ID in add list")
		}
		if !ch.HasParticipant(pid) {
			ch.Participants = append(ch.Participants, pid)
		}
	}
	for _, raw := range req.Remove {
		pid, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return c.AbortBadRequest("invalid profile ID in remove list")
		}
		if pid == ch.CreatedBy {
			return c.AbortBadRequest("the creator cannot be removed")
		}
		filtered := ch.Participants[:0]
		for _, existing := range ch.Participants {
			if existing != pid {
				filtered = append(filtered, existing)
			}
		}
		ch.Participants = filtered
	}

	ch.UpdatedAt = time.Now().UTC()
	if err := s.store.Challenges().Update(c.Context(), ch); err != nil {
		return c.AbortInternalServerError("failed to update participants")
	}

	s.logger.Info("challenge participants updated",
		slog.String("challenge_id", id.String()),
		slog.Int("added", len(req.Add)),
		slog.Int("removed", len(req.Remove)),
	)

	return c.OK(toChallengeResponse(ch))
}

func (s *Server) handleChallengeComplete(c *okapi.Context) error {
	profileID, err := s.requireProfile(c)
	if err != nil {
		return err
	}
	if err := s.allow(c); err != nil {
		return err
	}
	actor, err := uuid.Parse(profileID)
	if err != nil {
		return c.AbortBadRequest("invalid X-Profile-ID header")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid challenge ID")
	}

	ch, err := s.store.Challenges().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "challenge")
	}
	if actor != ch.CreatedBy {
		return c.JSON(http.StatusForbidden, okapi.M{"error": "only the creator can complete a challenge"})
	}
	// Completion is terminal.
	if ch.Completed() {
		return c.JSON(http.StatusConflict, okapi.M{"error": "challenge is already completed"})
	}

	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}

	now := time.Now().UTC()
	ratings := make([]domain.ChallengeRating, 0, len(req.Ratings))
	for _, r := range req.Ratings {
		pid, parseErr := uuid.Parse(r.ProfileID)
		if parseErr != nil {
			return c.AbortBadRequest("invalid profile ID in ratings")
		}
		if r.Rating < domain.SkillRatingMin || r.Rating > domain.SkillRatingMax {
			return c.AbortBadRequest("rating must be between 1 and 5")
		}
		if pid == ch.CreatedBy {
			return c.AbortBadRequest("the creator cannot rate themselves")
		}
		if !ch.HasParticipant(pid) {
			return c.AbortBadRequest("ratings may only target participants")
		}
		ratings = append(ratings, domain.ChallengeRating{
			ID:          uuid.New(),
			ChallengeID: ch.ID,
			ProfileID:   pid,
			Rating:      r.Rating,
			CreatedAt:   now,
		})
	}

	ch.Status = domain.ChallengeCompleted
	ch.UpdatedAt = now
	if err := s.store.Challenges().Update(c.Context(), ch); err != nil {
		return c.AbortInternalServerError("failed to complete challenge")
	}
	if err := s.store.Ratings().Upsert(c.Context(), ratings); err != nil {
		s.logger.Error("rating upsert failed",
			slog.String("challenge_id", id.String()),
			slog.String("error", err.Error()),
		)
		return c.AbortInternalServerError("failed to store ratings")
	}

	s.logger.Info("challenge completed",
		slog.String("challenge_id", id.String()),
		slog.Int("ratings", len(ratings)),
	)

	return c.OK(toChallengeResponse(ch))
}

func (s *Server) handleMessageList(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid challenge ID")
	}

	if _, err := s.store.Challenges().Get(c.Context(), id); err != nil {
		return notFoundOrInternal(c, err, "challenge")
	}

	messages, err := s.store.Messages().ListByChallenge(c.Context(), id)
	if err != nil {
		return c.AbortInternalServerError("failed to list messages")
	}

	resp := make([]MessageResponse, len(messages))
	for i := range messages {
		resp[i] = toMessageResponse(&messages[i])
	}
	return c.OK(resp)
}

func (s *Server) handleMessageCreate(c *okapi.Context) error {
	profileID, err := s.requireProfile(c)
	if err != nil {
		return err
	}
	if err := s.allow(c); err != nil {
		return err
	}
	sender, err := uuid.Parse(profileID)
	if err != nil {
		return c.AbortBadRequest("invalid X-Profile-ID header")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid challenge ID")
	}

	ch, err := s.store.Challenges().Get(c.Context(), id)
	if err != nil {
		return notFoundOrInternal(c, err, "challenge")
	}
	// Completed challenges keep their chat history readable but frozen.
	if ch.Completed() {
		return c.JSON(http.StatusConflict, okapi.M{"error": "challenge is completed"})
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Content == "" {
		return c.AbortBadRequest("content is required")
	}

	m := &domain.Message{
		ID:              uuid.New(),
		ChallengeID:     id,
		SenderProfileID: sender,
		Content:         req.Content,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.Messages().Create(c.Context(), m); err != nil {
		return c.AbortInternalServerError("failed to store message")
	}

	return c.JSON(http.StatusCreated, toMessageResponse(m))
}
