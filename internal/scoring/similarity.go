package scoring

import (
	"sort"
	"strings"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// Similarity weights. A shared skill contributes maxSkillSimilarity minus
// the rating distance, so identical ratings score 10 and the widest spread
// (1 vs 5) still scores 6.
const (
	maxSkillSimilarity    = 10
	sameBusinessUnitBonus = 3
	sameCountryBonus      = 2
)

// DefaultSimilarLimit caps the "similar to you" result list.
const DefaultSimilarLimit = 6

// MatchingSkill records one shared skill between two profiles.
type MatchingSkill struct {
	Name          string `json:"name"`
	UserRating    int    `json:"user_rating"`
	ProfileRating int    `json:"profile_rating"`
	Similarity    int    `json:"similarity"`
}

// ScoredProfile is a profile annotated with its similarity score and the
// shared skills that produced it.
type ScoredProfile struct {
	domain.Profile
	Score          int             `json:"score"`
	MatchingSkills []MatchingSkill `json:"matching_skills"`
}

// ProfileSimilarity scores how alike two profiles are: shared skills by
// exact case-insensitive name (closer ratings score higher), plus flat
// bonuses for same business unit and same country. MatchingSkills comes
// back sorted most-similar first for display.
func ProfileSimilarity(user, candidate *domain.Profile) ScoredProfile {
	score := 0
	var matching []MatchingSkill

	for _, userSkill := range user.Skills {
		for _, skill := range candidate.Skills {
			if !strings.EqualFold(skill.Name, userSkill.Name) {
				continue
			}
			similarity := maxSkillSimilarity - abs(userSkill.Rating-skill.Rating)
			score += similarity
			matching = append(matching, MatchingSkill{
				Name:          skill.Name,
				UserRating:    userSkill.Rating,
				ProfileRating: skill.Rating,
				Similarity:    similarity,
			})
			break
		}
	}

	if candidate.BusinessUnit == user.BusinessUnit {
		score += sameBusinessUnitBonus
	}
	if candidate.Country == user.Country {
		score += sameCountryBonus
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Similarity > matching[j].Similarity
	})

	return ScoredProfile{Profile: *candidate, Score: score, MatchingSkills: matching}
}

// FindSimilarProfiles scores every candidate against the user, drops
// candidates without any match, and returns the top `limit` sorted by
// descending score. Candidates must not include the user themselves.
func FindSimilarProfiles(user *domain.Profile, candidates []domain.Profile, limit int) []ScoredProfile {
	scored := make([]ScoredProfile, 0, len(candidates))
	for i := range candidates {
		sp := ProfileSimilarity(user, &candidates[i])
		if sp.Score > 0 {
			scored = append(scored, sp)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
