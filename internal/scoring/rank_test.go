package scoring

import (
	"testing"

	"github.com/skillbridge/skillbridge/internal/domain"
)

func TestRankSuggestedProfilesWithKeywords(t *testing.T) {
	profiles := []domain.Profile{
		{Name: "generalist", Skills: []domain.Skill{{Name: "Excel", Rating: 5}, {Name: "React", Rating: 2}}},
		{Name: "specialist", Skills: []domain.Skill{{Name: "React", Rating: 5}}},
	}

	got := RankSuggestedProfiles(profiles, "New react dashboard")
	if got[0].Name != "specialist" {
		t.Errorf("expected specialist first, got %q", got[0].Name)
	}
}

func TestRankSuggestedProfilesWithoutKeywords(t *testing.T) {
	profiles := []domain.Profile{
		{Name: "low", Skills: []domain.Skill{{Name: "Excel", Rating: 2}}},
		{Name: "high", Skills: []domain.Skill{{Name: "Negotiation", Rating: 5}}},
	}

	got := RankSuggestedProfiles(profiles, "Organize the offsite")
	if got[0].Name != "high" {
		t.Errorf("expected highest overall rating first, got %q", got[0].Name)
	}
}

func TestRankSuggestedProfilesDoesNotMutateInput(t *testing.T) {
	profiles := []domain.Profile{
		{Name: "a", Skills: []domain.Skill{{Name: "React", Rating: 1}}},
		{Name: "b", Skills: []domain.Skill{{Name: "React", Rating: 5}}},
	}
	RankSuggestedProfiles(profiles, "react")
	if profiles[0].Name != "a" || profiles[1].Name != "b" {
		t.Error("input slice was reordered")
	}
}
