package scoring

import (
	"strings"

	"github.com/skillbridge/skillbridge/internal/domain"
)

// BestMatchingRating returns the highest rating among skills that match any
// of the keywords. A skill matches a keyword when either contains the other
// as a substring (deliberately loose, so "React" still matches "react.js").
// The boolean distinguishes "no skill matched" from a genuinely low rating.
func BestMatchingRating(skills []domain.Skill, keywords []string) (int, bool) {
	best := 0
	matched := false
	for _, skill := range skills {
		name := strings.ToLower(skill.Name)
		for _, keyword := range keywords {
			if strings.Contains(name, keyword) || strings.Contains(keyword, name) {
				matched = true
				if skill.Rating > best {
					best = skill.Rating
				}
				break
			}
		}
	}
	return best, matched
}

// MaxRating returns the highest rating across all skills, or 0 for an empty
// list. Used as the ranking fallback when a challenge has no tech keywords.
func MaxRating(skills []domain.Skill) int {
	best := 0
	for _, skill := range skills {
		if skill.Rating > best {
			best = skill.Rating
		}
	}
	return best
}
