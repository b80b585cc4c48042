package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// MessageRepository implements domain.MessageStore with GORM.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	model := toMessageModel(m)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("creating message %s: %w", m.ID, err)
	}
	return nil
}

func (r *MessageRepository) ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]domain.Message, error) {
	var models []MessageModel
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing messages for challenge %s: %w", challengeID, err)
	}
	messages := make([]domain.Message, len(models))
	for i := range models {
		messages[i] = *toMessageDomain(&models[i])
	}
	return messages, nil
}

// Compile-time check.
var _ domain.MessageStore = (*MessageRepository)(nil)
