package memory

import (
	"context"
	"sort"

	"coding-trivia-service/internal/domain"
)

// StaticRoundSource serves rounds from a fixed slice (useful for tests/demos).
// Rounds without an id are numbered in order starting at 1.
type StaticRoundSource struct {
	byID   map[int64]domain.Round
	active []domain.Round
}

func NewStaticRoundSource(rounds []domain.Round) *StaticRoundSource {
	src := &StaticRoundSource{byID: make(map[int64]domain.Round, len(rounds))}
	for i, r := range rounds {
		if r.ID == 0 {
			r.ID = int64(i + 1)
		}
		src.byID[r.ID] = r
		if r.IsActive {
			src.active = append(src.active, r)
		}
	}
	sort.Slice(src.active, func(i, j int) bool {
		return src.active[i].RoundNumber < src.active[j].RoundNumber
	})
	return src
}

func (s *StaticRoundSource) ListActiveRounds(_ context.Context) ([]domain.Round, error) {
	out := make([]domain.Round, len(s.active))
	copy(out, s.active)
	return out, nil
}

func (s *StaticRoundSource) GetRound(_ context.Context, id int64) (domain.Round, error) {
	if r, ok := s.byID[id]; ok {
		return r, nil
	}
	return domain.Round{}, domain.ErrRoundNotFound
}
