package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// ProfileRepository implements domain.ProfileStore with GORM.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	model := toProfileModel(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("creating profile %s: %w", p.ID, err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var model ProfileModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}
	return toProfileDomain(&model), nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	model := toProfileModel(p)
	result := r.db.WithContext(ctx).Model(&ProfileModel{}).
		Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return fmt.Errorf("updating profile %s: %w", p.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	var models []ProfileModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	profiles := make([]domain.Profile, len(models))
	for i := range models {
		profiles[i] = *toProfileDomain(&models[i])
	}
	return profiles, nil
}

func (r *ProfileRepository) UpdateStats(ctx context.Context, id uuid.UUID, totalChallenges int, averageRating float64) error {
	result := r.db.WithContext(ctx).Model(&ProfileModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_challenges": totalChallenges,
			"average_rating":   averageRating,
		})
	if result.Error != nil {
		return fmt.Errorf("updating stats for profile %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Compile-time check.
var _ domain.ProfileStore = (*ProfileRepository)(nil)
