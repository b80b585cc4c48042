// Package domain defines the core entities of SkillBridge — profiles,
// challenges, chat messages, and challenge ratings — together with the
// store interfaces the persistence backends implement.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Skill rating bounds (1-5 stars).
const (
	SkillRatingMin = 1
	SkillRatingMax = 5
)

// Skill is a named competency with a 1-5 star rating.
// Skills are owned by exactly one profile and have no independent lifecycle;
// profile updates replace the skill list wholesale.
type Skill struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// Profile is an employee record with skills, role, location, and business unit.
// TotalChallenges and AverageRating are denormalized read models maintained
// by the stats refresher; the leaderboard computes them from scratch.
type Profile struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Country         string    `json:"country"`
	Role            string    `json:"role"`
	BusinessUnit    string    `json:"business_unit"`
	Description     string    `json:"description,omitempty"`
	Interests       string    `json:"interests,omitempty"`
	Photo           string    `json:"photo,omitempty"`
	Skills          []Skill   `json:"skills"`
	TotalChallenges int       `json:"total_challenges"`
	AverageRating   float64   `json:"average_rating"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChallengeType distinguishes public from private challenges.
type ChallengeType string

const (
	ChallengePublic  ChallengeType = "public"
	ChallengePrivate ChallengeType = "private"
)

// ChallengeStatus is the lifecycle state of a challenge.
// The only transition is ongoing → completed, and it is terminal.
type ChallengeStatus string

const (
	ChallengeOngoing   ChallengeStatus = "ongoing"
	ChallengeCompleted ChallengeStatus = "completed"
)

// Challenge is a project that profiles can join and get rated on at completion.
// SuggestedProfiles is computed once at creation time by the suggestion
// pipeline and stored statically — it is never recomputed.
type Challenge struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Type              ChallengeType   `json:"type"`
	Status            ChallengeStatus `json:"status"`
	CreatedBy         uuid.UUID       `json:"created_by"`
	SuggestedProfiles []uuid.UUID     `json:"suggested_profiles"`
	Participants      []uuid.UUID     `json:"participants"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// HasParticipant reports whether the given profile is a participant.
func (c *Challenge) HasParticipant(profileID uuid.UUID) bool {
	for _, id := range c.Participants {
		if id == profileID {
			return true
		}
	}
	return false
}

// Completed reports whether the challenge has reached its terminal state.
func (c *Challenge) Completed() bool {
	return c.Status == ChallengeCompleted
}

// Message is a single chat message inside a challenge.
// Append-only and immutable once created, ordered by CreatedAt.
type Message struct {
	ID              uuid.UUID `json:"id"`
	ChallengeID     uuid.UUID `json:"challenge_id"`
	SenderProfileID uuid.UUID `json:"sender_profile_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// ChallengeRating is a 1-5 star rating a participant received for a
// challenge. Unique per (challenge, profile) with upsert semantics —
// re-running completion overwrites the previous value.
type ChallengeRating struct {
	ID          uuid.UUID `json:"id"`
	ChallengeID uuid.UUID `json:"challenge_id"`
	ProfileID   uuid.UUID `json:"profile_id"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileStore persists profiles.
type ProfileStore interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
	// Update replaces the whole profile, skills included.
	Update(ctx context.Context, p *Profile) error
	List(ctx context.Context) ([]Profile, error)
	// UpdateStats writes the denormalized challenge/rating aggregates.
	UpdateStats(ctx context.Context, id uuid.UUID, totalChallenges int, averageRating float64) error
}

// ChallengeStore persists challenges.
type ChallengeStore interface {
	Create(ctx context.Context, c *Challenge) error
	Get(ctx context.Context, id uuid.UUID) (*Challenge, error)
	Update(ctx context.Context, c *Challenge) error
	// List returns all challenges, newest first.
	List(ctx context.Context) ([]Challenge, error)
	// ListByStatus returns challenges in the given state, newest first.
	ListByStatus(ctx context.Context, status ChallengeStatus) ([]Challenge, error)
	// ListByParticipant returns challenges the profile participates in, newest first.
	ListByParticipant(ctx context.Context, profileID uuid.UUID) ([]Challenge, error)
}

// MessageStore persists challenge chat messages.
type MessageStore interface {
	Create(ctx context.Context, m *Message) error
	// ListByChallenge returns the challenge's messages in creation order.
	ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]Message, error)
}

// RatingStore persists challenge ratings.
type RatingStore interface {
	// Upsert inserts or overwrites ratings keyed by (challenge_id, profile_id).
	Upsert(ctx context.Context, ratings []ChallengeRating) error
	ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]ChallengeRating, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]ChallengeRating, error)
	List(ctx context.Context) ([]ChallengeRating, error)
}
