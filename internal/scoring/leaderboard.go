package scoring

import (
	"sort"

	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge/internal/domain"
)

// Leaderboard weights. Finishing challenges dominates; the average rating
// is a tiebreaker-sized contribution on top.
const (
	completedChallengeWeight = 10
	averageRatingWeight      = 5
)

// DefaultLeaderboardLimit caps the leaderboard size.
const DefaultLeaderboardLimit = 10

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	Profile             domain.Profile `json:"profile"`
	CompletedChallenges int            `json:"completed_challenges"`
	AverageRating       float64        `json:"average_rating"`
	Score               float64        `json:"score"`
}

// BuildLeaderboard recomputes the leaderboard from completed challenges and
// ratings. Score is completed*10 + avgRating*5; profiles with zero score are
// dropped and the top `limit` returned in descending order. Aggregates come
// from the raw inputs, never from the denormalized profile fields.
func BuildLeaderboard(profiles []domain.Profile, completed []domain.Challenge, ratings []domain.ChallengeRating, limit int) []LeaderboardEntry {
	completedCount := make(map[uuid.UUID]int)
	for _, challenge := range completed {
		if !challenge.Completed() {
			continue
		}
		for _, id := range challenge.Participants {
			completedCount[id]++
		}
	}

	ratingSum := make(map[uuid.UUID]int)
	ratingCount := make(map[uuid.UUID]int)
	for _, r := range ratings {
		ratingSum[r.ProfileID] += r.Rating
		ratingCount[r.ProfileID]++
	}

	entries := make([]LeaderboardEntry, 0, len(profiles))
	for _, profile := range profiles {
		avg := 0.0
		if n := ratingCount[profile.ID]; n > 0 {
			avg = float64(ratingSum[profile.ID]) / float64(n)
		}
		count := completedCount[profile.ID]
		score := float64(count*completedChallengeWeight) + avg*averageRatingWeight
		if score <= 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Profile:             profile,
			CompletedChallenges: count,
			AverageRating:       avg,
			Score:               score,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// ProfileStats computes the denormalized aggregates for a single profile:
// the number of completed challenges it participated in and its average
// received rating.
func ProfileStats(profileID uuid.UUID, completed []domain.Challenge, ratings []domain.ChallengeRating) (int, float64) {
	count := 0
	for _, challenge := range completed {
		if challenge.Completed() && challenge.HasParticipant(profileID) {
			count++
		}
	}
	sum, n := 0, 0
	for _, r := range ratings {
		if r.ProfileID == profileID {
			sum += r.Rating
			n++
		}
	}
	avg := 0.0
	if n > 0 {
		avg = float64(sum) / float64(n)
	}
	return count, avg
}
