package memory

import (
	"sort"

	"coding-trivia-service/internal/domain"
)

// Rank orders entries by points descending then average time ascending, and assigns
// dense ranks: entries equal on both keys share a rank and the next distinct entry
// gets the following number. Participant id breaks display ties only.
func Rank(entries []domain.RankedEntry) []domain.RankedEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.AverageTime != b.AverageTime {
			return a.AverageTime < b.AverageTime
		}
		return a.ParticipantID < b.ParticipantID
	})

	rank := 0
	for i := range entries {
		if i == 0 || entries[i].TotalPoints != entries[i-1].TotalPoints || entries[i].AverageTime != entries[i-1].AverageTime {
			rank++
		}
		entries[i].Rank = rank
	}
	return entries
}
