// Package seed populates a fresh database with demo profiles and a sample
// challenge so the API has something to serve out of the box.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/storage"
)

// Apply inserts the demo dataset. It refuses to touch a database that already
// has profiles, so repeated invocations stay harmless.
func Apply(ctx context.Context, store storage.Store, logger *slog.Logger) error {
	existing, err := store.Profiles().List(ctx)
	if err != nil {
		return fmt.Errorf("checking existing profiles: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("database already has profiles, skipping seed",
			slog.Int("profiles", len(existing)),
		)
		return nil
	}

	now := time.Now().UTC()
	profiles := demoProfiles(now)
	for i := range profiles {
		if err := store.Profiles().Create(ctx, &profiles[i]); err != nil {
			return fmt.Errorf("seeding profile %s: %w", profiles[i].Name, err)
		}
	}

	challenge := demoChallenge(profiles, now)
	if err := store.Challenges().Create(ctx, challenge); err != nil {
		return fmt.Errorf("seeding challenge: %w", err)
	}

	logger.Info("demo data seeded",
		slog.Int("profiles", len(profiles)),
		slog.Int("challenges", 1),
	)
	return nil
}

func demoProfiles(now time.Time) []domain.Profile {
	return []domain.Profile{
		{
			ID:           uuid.New(),
			Name:         "Giulia Rossi",
			Country:      "Italy",
			Role:         "Frontend Developer",
			BusinessUnit: "Digital Products",
			Description:  "Builds design systems and component libraries.",
			Interests:    "accessibility, design systems",
			Skills: []domain.Skill{
				{Name: "React", Rating: 5},
				{Name: "TypeScript", Rating: 4},
				{Name: "CSS", Rating: 4},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:           uuid.New(),
			Name:         "Marco Bianchi",
			Country:      "Italy",
			Role:         "Backend Developer",
			BusinessUnit: "Platform Engineering",
			Description:  "Works on APIs and data pipelines.",
			Interests:    "distributed systems",
			Skills: []domain.Skill{
				{Name: "Go", Rating: 5},
				{Name: "PostgreSQL", Rating: 4},
				{Name: "Kubernetes", Rating: 3},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:           uuid.New(),
			Name:         "Sara Conti",
			Country:      "Spain",
			Role:         "Data Scientist",
			BusinessUnit: "Analytics",
			Description:  "Prototypes ML models for customer insights.",
			Interests:    "machine learning, nlp",
			Skills: []domain.Skill{
				{Name: "Python", Rating: 5},
				{Name: "SQL", Rating: 4},
				{Name: "Machine Learning", Rating: 4},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:           uuid.New(),
			Name:         "Luca Ferrari",
			Country:      "Italy",
			Role:         "DevOps Engineer",
			BusinessUnit: "Platform Engineering",
			Description:  "Automates deployments and observability.",
			Interests:    "cloud, automation",
			Skills: []domain.Skill{
				{Name: "Kubernetes", Rating: 5},
				{Name: "Docker", Rating: 5},
				{Name: "Terraform", Rating: 4},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:           uuid.New(),
			Name:         "Elena Moretti",
			Country:      "Germany",
			Role:         "Product Manager",
			BusinessUnit: "Digital Products",
			Description:  "Leads cross-functional delivery teams.",
			Interests:    "agile, product discovery",
			Skills: []domain.Skill{
				{Name: "Agile", Rating: 5},
				{Name: "Scrum", Rating: 4},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// demoChallenge creates one ongoing challenge owned by the first profile,
// with the frontend-skilled profiles pre-suggested.
func demoChallenge(profiles []domain.Profile, now time.Time) *domain.Challenge {
	creator := profiles[0]

	var suggested []uuid.UUID
	for _, p := range profiles {
		if p.ID == creator.ID {
			continue
		}
		for _, s := range p.Skills {
			if s.Name == "React" || s.Name == "TypeScript" {
				suggested = append(suggested, p.ID)
				break
			}
		}
	}

	return &domain.Challenge{
		ID:                uuid.New(),
		Title:             "Redesign the internal portal",
		Description:       "Rebuild the employee portal frontend with React and a shared component library.",
		Type:              domain.ChallengePublic,
		Status:            domain.ChallengeOngoing,
		CreatedBy:         creator.ID,
		SuggestedProfiles: suggested,
		Participants:      []uuid.UUID{creator.ID},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
