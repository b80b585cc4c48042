package postgres

import (
	"context"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/storage"
)

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger

	// Sub-store instances (created lazily on first access).
	mu         sync.Mutex
	profiles   domain.ProfileStore
	challenges domain.ChallengeStore
	messages   domain.MessageStore
	ratings    domain.RatingStore
}

// NewStore wraps an open GORM connection as a storage.Store.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Profiles() domain.ProfileStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profiles == nil {
		s.profiles = NewProfileRepository(s.db)
	}
	return s.profiles
}

func (s *Store) Challenges() domain.ChallengeStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.challenges == nil {
		s.challenges = NewChallengeRepository(s.db)
	}
	return s.challenges
}

func (s *Store) Messages() domain.MessageStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages == nil {
		s.messages = NewMessageRepository(s.db)
	}
	return s.messages
}

func (s *Store) Ratings() domain.RatingStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ratings == nil {
		s.ratings = NewRatingRepository(s.db)
	}
	return s.ratings
}

// Migrate runs GORM AutoMigrate to create/update tables.
func (s *Store) Migrate(_ context.Context) error {
	return AutoMigrate(s.db)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Driver returns "postgres".
func (s *Store) Driver() string {
	return storage.DriverPostgres
}

// GormDB returns the underlying GORM DB.
func (s *Store) GormDB() *gorm.DB {
	return s.db
}

// compile-time interface check
var _ storage.Store = (*Store)(nil)
