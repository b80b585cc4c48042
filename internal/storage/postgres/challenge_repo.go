package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// ChallengeRepository implements domain.ChallengeStore with GORM.
type ChallengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository creates a ChallengeRepository.
func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	model := toChallengeModel(c)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("creating challenge %s: %w", c.ID, err)
	}
	return nil
}

func (r *ChallengeRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	var model ChallengeModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("challenge %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting challenge %s: %w", id, err)
	}
	return toChallengeDomain(&model), nil
}

func (r *ChallengeRepository) Update(ctx context.Context, c *domain.Challenge) error {
	model := toChallengeModel(c)
	result := r.db.WithContext(ctx).Model(&ChallengeModel{}).
		Where("id = ?", c.ID).
		Select("*").Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return fmt.Errorf("updating challenge %s: %w", c.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("challenge %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *ChallengeRepository) List(ctx context.Context) ([]domain.Challenge, error) {
	var models []ChallengeModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing challenges: %w", err)
	}
	return toChallengeDomains(models), nil
}

func (r *ChallengeRepository) ListByStatus(ctx context.Context, status domain.ChallengeStatus) ([]domain.Challenge, error) {
	var models []ChallengeModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing %s challenges: %w", status, err)
	}
	return toChallengeDomains(models), nil
}

// ListByParticipant matches against the participants JSON array column.
// A LIKE on the quoted UUID is exact enough: UUIDs never substring-collide.
func (r *ChallengeRepository) ListByParticipant(ctx context.Context, profileID uuid.UUID) ([]domain.Challenge, error) {
	var models []ChallengeModel
	err := r.db.WithContext(ctx).
		Where("participants LIKE ?", "%\""+profileID.String()+"\"%").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing challenges for participant %s: %w", profileID, err)
	}
	return toChallengeDomains(models), nil
}

func toChallengeDomains(models []ChallengeModel) []domain.Challenge {
	challenges := make([]domain.Challenge, len(models))
	for i := range models {
		challenges[i] = *toChallengeDomain(&models[i])
	}
	return challenges
}

// Compile-time check.
var _ domain.ChallengeStore = (*ChallengeRepository)(nil)
