package scoring

import (
	"sort"
	"strings"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// roleMatchBonus is added when the profile's role appears in the challenge text.
const roleMatchBonus = 2

// DefaultSuggestedChallengesLimit caps the "suggested for you" challenge list.
const DefaultSuggestedChallengesLimit = 6

// ChallengeMatchScore measures how well a profile fits a challenge's text.
// Each skill whose name occurs in the text adds its rating; a role mention
// adds a flat bonus. Containment is one-directional here (skill name in
// text), unlike the bidirectional matching used by the keyword matcher.
func ChallengeMatchScore(profile *domain.Profile, challengeText string) int {
	text := strings.ToLower(challengeText)
	score := 0

	for _, skill := range profile.Skills {
		if strings.Contains(text, strings.ToLower(skill.Name)) {
			score += skill.Rating
		}
	}

	if strings.Contains(text, strings.ToLower(profile.Role)) {
		score += roleMatchBonus
	}

	return score
}

// FindSuggestedChallenges ranks challenges for a user by skill relevance.
// Challenges the user already participates in are excluded; only positive
// scores survive; ties break newest-first.
func FindSuggestedChallenges(user *domain.Profile, challenges []domain.Challenge, limit int) []domain.Challenge {
	type scoredChallenge struct {
		challenge domain.Challenge
		score     int
	}

	scored := make([]scoredChallenge, 0, len(challenges))
	for _, challenge := range challenges {
		if challenge.HasParticipant(user.ID) {
			continue
		}
		score := ChallengeMatchScore(user, challenge.Title+" "+challenge.Description)
		if score > 0 {
			scored = append(scored, scoredChallenge{challenge: challenge, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].challenge.CreatedAt.After(scored[j].challenge.CreatedAt)
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	result := make([]domain.Challenge, len(scored))
	for i, sc := range scored {
		result[i] = sc.challenge
	}
	return result
}
