// Package scoring implements the matching algorithms of SkillBridge:
// profile-to-profile similarity, profile-to-challenge relevance, the
// leaderboard aggregation, and the keyword machinery backing the
// suggestion pipeline. Everything here is a pure function over in-memory
// snapshots — no I/O, no shared state.
package scoring

import (
	"regexp"
	"strings"
)

// techVocabulary is the closed set of technology, role, and domain terms the
// extractor recognizes. Matching the suggestion behavior depends on this
// exact list; extend it deliberately, not casually.
var techVocabulary = []string{
	"react", "angular", "vue", "node", "java", "python", "javascript",
	"typescript", "css", "html", "sql", "mongodb", "postgres", "docker",
	"kubernetes", "aws", "azure", "git", "figma", "photoshop", "ui", "ux",
	"design", "spring", "django", "flask", "express", "api", "rest",
	"graphql", "redis", "kafka", "go", "rust", "swift", "kotlin", "android",
	"ios", "flutter", "mobile", "frontend", "backend", "fullstack", "devops",
	"cloud", "data", "analytics", "machine learning", "ai", "testing", "qa",
	"cypress", "jest", "selenium", "c++", "c#", "ruby", "php", "scala",
	"perl", "r",
}

var techKeywordRe = compileVocabulary(techVocabulary)

// compileVocabulary builds a single case-insensitive alternation.
// Terms made of word characters get \b anchors; "c++" and "c#" end in
// non-word characters where \b inverts its meaning, so they are matched
// literally instead.
func compileVocabulary(terms []string) *regexp.Regexp {
	var bounded, literal []string
	for _, t := range terms {
		if strings.ContainsAny(t, "+#") {
			literal = append(literal, regexp.QuoteMeta(t))
		} else {
			bounded = append(bounded, regexp.QuoteMeta(t))
		}
	}
	pattern := `(?i)(\b(?:` + strings.Join(bounded, "|") + `)\b`
	if len(literal) > 0 {
		pattern += `|` + strings.Join(literal, "|")
	}
	pattern += `)`
	return regexp.MustCompile(pattern)
}

// ExtractTechKeywords scans free text for vocabulary terms and returns the
// lower-cased matches in order of occurrence. Duplicates are preserved —
// callers that need a set must de-duplicate themselves. Returns an empty
// slice when no term occurs.
func ExtractTechKeywords(text string) []string {
	matches := techKeywordRe.FindAllString(text, -1)
	keywords := make([]string, 0, len(matches))
	for _, m := range matches {
		keywords = append(keywords, strings.ToLower(m))
	}
	return keywords
}
