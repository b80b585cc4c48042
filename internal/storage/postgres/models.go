package postgres

import (
	"time"

	"github.com/google/uuid"
)

// ProfileModel maps to the "profiles" table.
// Skills is a JSON text column; SQLite stores JSON as text natively and
// PostgreSQL is happy with text too, so the same model serves both backends.
type ProfileModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"not null"`
	Country         string
	Role            string
	BusinessUnit    string
	Description     string
	Interests       string
	Photo           string
	Skills          string  `gorm:"type:text;not null;default:'[]'"`
	TotalChallenges int     `gorm:"not null;default:0"`
	AverageRating   float64 `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ProfileModel) TableName() string { return "profiles" }

// ChallengeModel maps to the "challenges" table.
// SuggestedProfiles and Participants are JSON text arrays of profile IDs.
type ChallengeModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title             string    `gorm:"not null"`
	Description       string
	Type              string    `gorm:"not null;default:'public'"`
	Status            string    `gorm:"not null;default:'ongoing';index"`
	CreatedBy         uuid.UUID `gorm:"type:uuid;not null"`
	SuggestedProfiles string    `gorm:"type:text;not null;default:'[]'"`
	Participants      string    `gorm:"type:text;not null;default:'[]'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ChallengeModel) TableName() string { return "challenges" }

// MessageModel maps to the "messages" table.
type MessageModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChallengeID     uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderProfileID uuid.UUID `gorm:"type:uuid;not null"`
	Content         string    `gorm:"not null"`
	CreatedAt       time.Time
}

func (MessageModel) TableName() string { return "messages" }

// ChallengeRatingModel maps to the "challenge_ratings" table.
// One rating per (challenge, profile); completion re-runs upsert into it.
type ChallengeRatingModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChallengeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_challenge_profile"`
	ProfileID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_challenge_profile;index"`
	Rating      int       `gorm:"not null"`
	CreatedAt   time.Time
}

func (ChallengeRatingModel) TableName() string { return "challenge_ratings" }
