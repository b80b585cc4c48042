package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// RatingRepository implements domain.RatingStore with GORM.
type RatingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a RatingRepository.
func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert inserts ratings, overwriting on the (challenge_id, profile_id)
// unique index so that re-running a completion is idempotent.
func (r *RatingRepository) Upsert(ctx context.Context, ratings []domain.ChallengeRating) error {
	if len(ratings) == 0 {
		return nil
	}
	models := make([]ChallengeRatingModel, len(ratings))
	for i := range ratings {
		models[i] = toRatingModel(&ratings[i])
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "challenge_id"},
				{Name: "profile_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"rating"}),
		}).
		Create(&models)
	if result.Error != nil {
		return fmt.Errorf("upserting %d ratings: %w", len(ratings), result.Error)
	}
	return nil
}

func (r *RatingRepository) ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]domain.ChallengeRating, error) {
	var models []ChallengeRatingModel
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing ratings for challenge %s: %w", challengeID, err)
	}
	return toRatingDomains(models), nil
}

func (r *RatingRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.ChallengeRating, error) {
	var models []ChallengeRatingModel
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing ratings for profile %s: %w", profileID, err)
	}
	return toRatingDomains(models), nil
}

func (r *RatingRepository) List(ctx context.Context) ([]domain.ChallengeRating, error) {
	var models []ChallengeRatingModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing ratings: %w", err)
	}
	return toRatingDomains(models), nil
}

func toRatingDomains(models []ChallengeRatingModel) []domain.ChallengeRating {
	ratings := make([]domain.ChallengeRating, len(models))
	for i := range models {
		ratings[i] = *toRatingDomain(&models[i])
	}
	return ratings
}

// Compile-time check.
var _ domain.RatingStore = (*RatingRepository)(nil)
