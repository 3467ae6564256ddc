package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/domain"
)

var _ app.Store = (*Store)(nil)

// Store is an in-memory implementation of app.Store, used for demos and tests.
type Store struct {
	now func() time.Time

	mu               sync.RWMutex
	nextParticipant  int64
	nextSubmission   int64
	participants     map[int64]domain.Participant
	participantEmail map[string]int64
	submissions      []domain.Submission
	leaderboard      map[int64]domain.LeaderboardEntry

	// aggregation is serialized per participant, never globally.
	aggregation *keyedMutex
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		now:              now,
		participants:     make(map[int64]domain.Participant),
		participantEmail: make(map[string]int64),
		leaderboard:      make(map[int64]domain.LeaderboardEntry),
		aggregation:      newKeyedMutex(),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) CreateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Participant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participantEmail[p.Email]; ok {
		return domain.Participant{}, domain.ErrDuplicateEmail
	}
	s.nextParticipant++
	p.ID = s.nextParticipant
	p.CreatedAt = s.now()
	s.participants[p.ID] = p
	s.participantEmail[p.Email] = p.ID
	return p, nil
}

func (s *Store) GetParticipant(ctx context.Context, id int64) (domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Participant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, nil
}

func (s *Store) InsertSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return domain.Submission{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[sub.ParticipantID]; !ok {
		return domain.Submission{}, domain.ErrParticipantNotFound
	}
	s.nextSubmission++
	sub.ID = s.nextSubmission
	sub.SubmittedAt = s.now()
	if sub.TimeTaken != nil {
		t := *sub.TimeTaken
		sub.TimeTaken = &t
	}
	s.submissions = append(s.submissions, sub)
	return sub, nil
}

// Submissions returns a copy of every submission for participantID in insertion order.
func (s *Store) Submissions(participantID int64) []domain.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Submission
	for _, sub := range s.submissions {
		if sub.ParticipantID == participantID {
			out = append(out, sub)
		}
	}
	return out
}

// LeaderboardEntry returns the cached entry for participantID, if any.
func (s *Store) LeaderboardEntry(participantID int64) (domain.LeaderboardEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.leaderboard[participantID]
	return e, ok
}

func (s *Store) RecomputeLeaderboard(ctx context.Context, participantID int64) (domain.LeaderboardEntry, error) {
	unlock := s.aggregation.Lock(participantID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.LeaderboardEntry{}, err
	}

	agg := aggregate(s.Submissions(participantID))
	entry := domain.LeaderboardEntry{
		ParticipantID:   participantID,
		TotalPoints:     agg.points,
		RoundsCompleted: len(agg.rounds),
		AverageTime:     agg.averageTime(),
		UpdatedAt:       s.now(),
	}

	s.mu.Lock()
	s.leaderboard[participantID] = entry
	s.mu.Unlock()
	return entry, nil
}

func (s *Store) ListLeaderboard(ctx context.Context, q domain.LeaderboardQuery) ([]domain.RankedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entries := make([]domain.RankedEntry, 0, len(s.leaderboard))
	for id, e := range s.leaderboard {
		p, ok := s.participants[id]
		if !ok || (q.Language != "" && p.Language != q.Language) {
			continue
		}
		entries = append(entries, domain.RankedEntry{
			ParticipantID:   id,
			TeamName:        p.TeamName,
			ParticipantName: p.ParticipantName,
			Language:        p.Language,
			TotalPoints:     e.TotalPoints,
			RoundsCompleted: e.RoundsCompleted,
			AverageTime:     e.AverageTime,
		})
	}
	s.mu.RUnlock()

	entries = Rank(entries)
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

func (s *Store) ParticipantsWithSubmissions(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	seen := make(map[int64]struct{})
	for _, sub := range s.submissions {
		seen[sub.ParticipantID] = struct{}{}
	}
	s.mu.RUnlock()

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) Progress(ctx context.Context, participantID int64) (domain.Progress, error) {
	p, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return domain.Progress{}, err
	}
	subs := s.Submissions(participantID)
	agg := aggregate(subs)
	return domain.Progress{
		ParticipantID:    p.ID,
		TeamName:         p.TeamName,
		ParticipantName:  p.ParticipantName,
		Language:         p.Language,
		TotalSubmissions: len(subs),
		TotalPoints:      agg.points,
		CorrectAnswers:   agg.correct,
		AverageTime:      agg.averageTime(),
	}, nil
}

func (s *Store) SystemStats(ctx context.Context) (domain.SystemStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.SystemStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.SystemStats{
		TotalParticipants: len(s.participants),
		TotalSubmissions:  len(s.submissions),
		Languages:         []domain.LanguageCount{},
	}
	for _, sub := range s.submissions {
		if sub.IsCorrect {
			stats.CorrectSubmissions++
		}
	}

	byLang := make(map[string]int)
	for _, p := range s.participants {
		byLang[p.Language]++
	}
	for lang, n := range byLang {
		stats.Languages = append(stats.Languages, domain.LanguageCount{Language: lang, Count: n})
	}
	sort.Slice(stats.Languages, func(i, j int) bool {
		if stats.Languages[i].Count != stats.Languages[j].Count {
			return stats.Languages[i].Count > stats.Languages[j].Count
		}
		return stats.Languages[i].Language < stats.Languages[j].Language
	})
	return stats, nil
}

type submissionAggregate struct {
	points  int
	correct int
	rounds  map[int64]struct{}
	timeSum int
	timeN   int
}

func aggregate(subs []domain.Submission) submissionAggregate {
	agg := submissionAggregate{rounds: make(map[int64]struct{})}
	for _, sub := range subs {
		agg.points += sub.PointsEarned
		agg.rounds[sub.RoundID] = struct{}{}
		if sub.IsCorrect {
			agg.correct++
		}
		// Like SQL AVG, submissions without a reported time do not count toward the mean.
		if sub.TimeTaken != nil {
			agg.timeSum += *sub.TimeTaken
			agg.timeN++
		}
	}
	return agg
}

func (a submissionAggregate) averageTime() float64 {
	if a.timeN == 0 {
		return 0
	}
	return float64(a.timeSum) / float64(a.timeN)
}
