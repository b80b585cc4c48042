package suggest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/scoring"
)

// candidateProfile is the shape each profile takes inside the prompt.
// Index refers to the caller's full profile slice, not the filtered one,
// so the model's answer maps back without translation.
type candidateProfile struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	BusinessUnit string `json:"business_unit"`
	Country      string `json:"country"`
	Description  string `json:"description"`
	Interests    string `json:"interests"`
	Skills       string `json:"skills"`
}

// buildPrompt renders the matching prompt for the LLM. With many profiles
// and recognizable tech keywords, candidates are pre-filtered to the
// prefilterThreshold most relevant to keep token usage bounded.
func buildPrompt(title, description string, profiles []domain.Profile) (string, error) {
	selected := prefilter(title, description, profiles)

	candidates := make([]candidateProfile, len(selected))
	for i, idx := range selected {
		p := &profiles[idx]
		candidates[i] = candidateProfile{
			Index:        idx,
			Name:         p.Name,
			Role:         p.Role,
			BusinessUnit: p.BusinessUnit,
			Country:      p.Country,
			Description:  p.Description,
			Interests:    p.Interests,
			Skills:       formatSkills(p.Skills),
		}
	}

	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling candidates: %w", err)
	}

	return fmt.Sprintf(`You are an AI assistant that matches company challenges with the best employee profiles based on SKILLS.

CHALLENGE:
Title: %s
Description: %s

AVAILABLE PROFILES:
%s

TASK:
Analyze the challenge and suggest ONLY profiles with MATCHING SKILLS (up to %d maximum).

STRICT MATCHING RULES:
1. **ONLY suggest profiles whose skills DIRECTLY match the challenge requirements**
2. For technical challenges, match EXACT technologies (e.g., "React" needs React skill, NOT Angular or Vue)
3. Higher skill ratings (4-5 stars) are better than lower ratings (1-3 stars)
4. If challenge mentions specific technologies, ONLY match those exact skills
5. **If NO profiles have matching skills, return an empty array []**
6. Return FEWER than %d if only a few profiles match (quality over quantity)

EXAMPLES:
- Challenge: "Build React component" → ONLY profiles with React/JavaScript/TypeScript skills
- Challenge: "Java backend API" → ONLY profiles with Java/Spring Boot/backend skills
- Challenge: "Design UI mockup" → ONLY profiles with UI/UX/Figma/Design skills
- Challenge: "Python data analysis" → ONLY profiles with Python/pandas/data science skills

DO NOT suggest profiles just because they are developers - they MUST have the specific skills mentioned.

Return ONLY a JSON array with indices of profiles that ACTUALLY match (1-%d max, or empty [] if none match).
Format: [index1, index2, ...] or []

Your response (JSON array only):`, title, description, data, maxSuggestions, maxSuggestions, maxSuggestions), nil
}

// prefilter returns the indices of the profiles to include in the prompt.
// All of them when the set is small or no tech keywords are recognized;
// otherwise the prefilterThreshold best by keyword-weighted skill ratings.
func prefilter(title, description string, profiles []domain.Profile) []int {
	all := make([]int, len(profiles))
	for i := range profiles {
		all[i] = i
	}

	keywords := scoring.ExtractTechKeywords(title + " " + description)
	if len(keywords) == 0 || len(profiles) <= prefilterThreshold {
		return all
	}

	scores := make([]int, len(profiles))
	for i := range profiles {
		for _, skill := range profiles[i].Skills {
			name := strings.ToLower(skill.Name)
			for _, keyword := range keywords {
				if strings.Contains(name, keyword) || strings.Contains(keyword, name) {
					scores[i] += skill.Rating
				}
			}
		}
	}

	sort.SliceStable(all, func(a, b int) bool {
		return scores[all[a]] > scores[all[b]]
	})
	return all[:prefilterThreshold]
}

func formatSkills(skills []domain.Skill) string {
	parts := make([]string, len(skills))
	for i, s := range skills {
		parts[i] = fmt.Sprintf("%s (%d/5 stars)", s.Name, s.Rating)
	}
	return strings.Join(parts, ", ")
}
