package suggest

import (
	"sort"
	"strings"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/scoring"
)

// Deterministic matcher weights and thresholds. The tech branch weighs
// skill matches heavily and requires at least one; the generic branch
// scores words against skills, role, and description with a lower bar.
const (
	techSkillWeight    = 5.0
	techRoleBonus      = 0.5
	techScoreThreshold = 3.0

	wordSkillWeight     = 3.0
	wordRoleBonus       = 1.0
	wordDescBonus       = 0.5
	wordScoreThreshold  = 2.0
	minMeaningfulLength = 4
)

// stopWords are common filler words excluded from generic matching.
// The platform's challenge texts are mostly Italian.
var stopWords = map[string]struct{}{
	"il": {}, "la": {}, "i": {}, "le": {}, "di": {}, "da": {}, "in": {},
	"con": {}, "su": {}, "per": {}, "a": {}, "e": {}, "un": {}, "una": {}, "che": {},
}

// FallbackSuggest is the deterministic replacement for the LLM matcher.
// With recognizable tech keywords in the challenge text it requires a real
// skill match; without them it scores generic word overlap across skills,
// role, and description. Returns at most maxSuggestions profiles, best first.
func FallbackSuggest(title, description string, profiles []domain.Profile) []domain.Profile {
	text := strings.ToLower(title + " " + description)

	keywords := scoring.ExtractTechKeywords(text)
	if len(keywords) == 0 {
		return matchByWords(text, profiles)
	}
	return matchByTechKeywords(keywords, profiles)
}

func matchByTechKeywords(keywords []string, profiles []domain.Profile) []domain.Profile {
	type scored struct {
		profile domain.Profile
		score   float64
	}

	var results []scored
	for _, profile := range profiles {
		score := 0.0
		hasSkillMatch := false

		for _, skill := range profile.Skills {
			name := strings.ToLower(skill.Name)
			for _, keyword := range keywords {
				if strings.Contains(name, keyword) || strings.Contains(keyword, name) {
					score += techSkillWeight * float64(skill.Rating) / float64(domain.SkillRatingMax)
					hasSkillMatch = true
				}
			}
		}

		// A role mention alone must not qualify a profile.
		if hasSkillMatch {
			role := strings.ToLower(profile.Role)
			for _, keyword := range keywords {
				if strings.Contains(role, keyword) {
					score += techRoleBonus
				}
			}
		}

		if hasSkillMatch && score > techScoreThreshold {
			results = append(results, scored{profile: profile, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}
	out := make([]domain.Profile, len(results))
	for i, r := range results {
		out[i] = r.profile
	}
	return out
}

func matchByWords(text string, profiles []domain.Profile) []domain.Profile {
	words := meaningfulWords(text)

	type scored struct {
		profile domain.Profile
		score   float64
	}

	var results []scored
	for _, profile := range profiles {
		score := 0.0

		for _, skill := range profile.Skills {
			name := strings.ToLower(skill.Name)
			for _, word := range words {
				if strings.Contains(name, word) || strings.Contains(word, name) {
					score += wordSkillWeight * float64(skill.Rating) / float64(domain.SkillRatingMax)
				}
			}
		}

		role := strings.ToLower(profile.Role)
		desc := strings.ToLower(profile.Description)
		for _, word := range words {
			if strings.Contains(role, word) {
				score += wordRoleBonus
			}
			if desc != "" && strings.Contains(desc, word) {
				score += wordDescBonus
			}
		}

		if score > wordScoreThreshold {
			results = append(results, scored{profile: profile, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}
	out := make([]domain.Profile, len(results))
	for i, r := range results {
		out[i] = r.profile
	}
	return out
}

// meaningfulWords splits lower-cased text into words long enough to carry
// signal, minus stop words.
func meaningfulWords(text string) []string {
	var words []string
	for _, word := range strings.Fields(text) {
		if len(word) < minMeaningfulLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		words = append(words, word)
	}
	return words
}
