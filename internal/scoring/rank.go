package scoring

import (
	"sort"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// RankSuggestedProfiles orders an already-selected set of suggested profiles
// for display against a challenge's text. With tech keywords present, each
// profile ranks by its best rating among keyword-matching skills; without
// keywords it falls back to the profile's best rating overall. The selection
// itself is the suggestion pipeline's job — this only sorts.
func RankSuggestedProfiles(profiles []domain.Profile, challengeText string) []domain.Profile {
	keywords := ExtractTechKeywords(challengeText)

	rank := func(p *domain.Profile) int {
		if len(keywords) == 0 {
			return MaxRating(p.Skills)
		}
		rating, _ := BestMatchingRating(p.Skills, keywords)
		return rating
	}

	ranked := make([]domain.Profile, len(profiles))
	copy(ranked, profiles)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rank(&ranked[i]) > rank(&ranked[j])
	})
	return ranked
}
