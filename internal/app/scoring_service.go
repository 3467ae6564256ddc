package app

import (
	"context"
	"errors"
	"fmt"

	"coding-trivia-service/internal/domain"
	"coding-trivia-service/pkg/logger"
)

// RoundCatalog resolves rounds (database, cache, static fixtures).
type RoundCatalog interface {
	// ListActiveRounds returns active rounds ordered by round number.
	ListActiveRounds(ctx context.Context) ([]domain.Round, error)
	// GetRound resolves a round by id regardless of its active flag.
	// Returns domain.ErrRoundNotFound when absent.
	GetRound(ctx context.Context, id int64) (domain.Round, error)
}

// ParticipantStore persists registrations.
type ParticipantStore interface {
	// CreateParticipant returns domain.ErrDuplicateEmail when the email is on file.
	CreateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error)
	GetParticipant(ctx context.Context, id int64) (domain.Participant, error)
}

// SubmissionStore appends judged submissions.
type SubmissionStore interface {
	// InsertSubmission returns domain.ErrParticipantNotFound when the participant does not exist.
	InsertSubmission(ctx context.Context, s domain.Submission) (domain.Submission, error)
}

// LeaderboardStore owns the materialized leaderboard.
type LeaderboardStore interface {
	// RecomputeLeaderboard rebuilds one participant's entry from all their submissions and
	// upserts it. Implementations serialize concurrent calls for the same participant.
	RecomputeLeaderboard(ctx context.Context, participantID int64) (domain.LeaderboardEntry, error)
	// ListLeaderboard returns ranked entries; q.Limit is already clamped.
	ListLeaderboard(ctx context.Context, q domain.LeaderboardQuery) ([]domain.RankedEntry, error)
	// ParticipantsWithSubmissions lists every participant id that has at least one submission.
	ParticipantsWithSubmissions(ctx context.Context) ([]int64, error)
}

// StatsStore answers read-only aggregate queries over raw submissions.
type StatsStore interface {
	Progress(ctx context.Context, participantID int64) (domain.Progress, error)
	SystemStats(ctx context.Context) (domain.SystemStats, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	ParticipantStore
	SubmissionStore
	LeaderboardStore
	StatsStore
	Ping(ctx context.Context) error
}

// Recorder receives scoring metrics.
type Recorder interface {
	RecordSubmission(correct bool)
	RecordAggregationFailure()
	RecordReconcile(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordSubmission(bool)    {}
func (nopRecorder) RecordAggregationFailure() {}
func (nopRecorder) RecordReconcile(bool)     {}

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

// ScoringService contains the competition use cases.
type ScoringService struct {
	rounds   RoundCatalog
	store    Store
	log      logger.Logger
	metrics  Recorder
	defLimit int
	maxLimit int
}

// Option configures a ScoringService.
type Option func(*ScoringService)

func WithLogger(l logger.Logger) Option {
	return func(s *ScoringService) { s.log = l }
}

func WithMetrics(r Recorder) Option {
	return func(s *ScoringService) { s.metrics = r }
}

// WithLeaderboardLimits sets the default and maximum leaderboard page size.
func WithLeaderboardLimits(defaultLimit, maxLimit int) Option {
	return func(s *ScoringService) {
		if defaultLimit > 0 {
			s.defLimit = defaultLimit
		}
		if maxLimit >= s.defLimit {
			s.maxLimit = maxLimit
		}
	}
}

func NewScoringService(rounds RoundCatalog, store Store, opts ...Option) *ScoringService {
	s := &ScoringService{
		rounds:   rounds,
		store:    store,
		log:      logger.Named("scoring"),
		metrics:  nopRecorder{},
		defLimit: defaultLeaderboardLimit,
		maxLimit: maxLeaderboardLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a participant.
func (s *ScoringService) Register(ctx context.Context, req RegisterRequest) (domain.Participant, error) {
	if err := validateRequest(req); err != nil {
		return domain.Participant{}, err
	}
	return s.store.CreateParticipant(ctx, domain.Participant{
		TeamName:        req.TeamName,
		ParticipantName: req.ParticipantName,
		Email:           req.Email,
		Phone:           req.Phone,
		Language:        req.Language,
		Experience:      req.Experience,
		TeamType:        req.TeamType,
	})
}

func (s *ScoringService) GetParticipant(ctx context.Context, id int64) (domain.Participant, error) {
	return s.store.GetParticipant(ctx, id)
}

// ListRounds returns the public view of every active round.
func (s *ScoringService) ListRounds(ctx context.Context) ([]domain.RoundView, error) {
	rounds, err := s.rounds.ListActiveRounds(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.RoundView, 0, len(rounds))
	for _, r := range rounds {
		views = append(views, r.View())
	}
	return views, nil
}

// GetRound returns the public view of an active round. Inactive rounds are reported as not found.
func (s *ScoringService) GetRound(ctx context.Context, id int64) (domain.RoundView, error) {
	round, err := s.rounds.GetRound(ctx, id)
	if err != nil {
		return domain.RoundView{}, err
	}
	if !round.IsActive {
		return domain.RoundView{}, domain.ErrRoundNotFound
	}
	return round.View(), nil
}

// Submit judges an answer, appends it and refreshes the participant's leaderboard entry.
// Validation and round lookup happen before any write. A failed leaderboard refresh is
// logged and does not fail the submit; the entry catches up on the next successful
// refresh for that participant or on reconciliation.
func (s *ScoringService) Submit(ctx context.Context, req SubmitRequest) (domain.SubmitResult, error) {
	if err := validateRequest(req); err != nil {
		return domain.SubmitResult{}, err
	}

	// The submit path does not filter by the active flag.
	round, err := s.rounds.GetRound(ctx, *req.RoundID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	verdict := Judge(round.CorrectAnswer, req.Answer, round.Points)

	sub, err := s.store.InsertSubmission(ctx, domain.Submission{
		ParticipantID: *req.ParticipantID,
		RoundID:       round.ID,
		Answer:        req.Answer,
		IsCorrect:     verdict.Correct,
		PointsEarned:  verdict.Points,
		TimeTaken:     req.TimeTaken,
	})
	if err != nil {
		return domain.SubmitResult{}, err
	}
	s.metrics.RecordSubmission(verdict.Correct)

	s.refreshLeaderboard(ctx, sub.ParticipantID)

	return domain.SubmitResult{
		SubmissionID: sub.ID,
		IsCorrect:    verdict.Correct,
		PointsEarned: verdict.Points,
		Explanation:  round.Explanation,
	}, nil
}

func (s *ScoringService) refreshLeaderboard(ctx context.Context, participantID int64) {
	if _, err := s.store.RecomputeLeaderboard(ctx, participantID); err != nil {
		s.metrics.RecordAggregationFailure()
		s.log.Error(ctx, "leaderboard aggregation failed",
			logger.Int64("participant_id", participantID),
			logger.Error(err))
	}
}

// ClampLimit resolves a requested page size: nil uses the default, values below 1
// become 1 and values above the maximum become the maximum.
func (s *ScoringService) ClampLimit(limit *int) int {
	if limit == nil {
		return s.defLimit
	}
	switch n := *limit; {
	case n < 1:
		return 1
	case n > s.maxLimit:
		return s.maxLimit
	default:
		return n
	}
}

// Leaderboard returns the ranked view, optionally filtered by language.
func (s *ScoringService) Leaderboard(ctx context.Context, language string, limit *int) ([]domain.RankedEntry, error) {
	return s.store.ListLeaderboard(ctx, domain.LeaderboardQuery{
		Language: language,
		Limit:    s.ClampLimit(limit),
	})
}

func (s *ScoringService) Progress(ctx context.Context, participantID int64) (domain.Progress, error) {
	return s.store.Progress(ctx, participantID)
}

func (s *ScoringService) SystemStats(ctx context.Context) (domain.SystemStats, error) {
	return s.store.SystemStats(ctx)
}

// ReconcileLeaderboard recomputes every participant that has submissions and returns
// how many entries were rebuilt. It keeps going past individual failures.
func (s *ScoringService) ReconcileLeaderboard(ctx context.Context) (int, error) {
	ids, err := s.store.ParticipantsWithSubmissions(ctx)
	if err != nil {
		s.metrics.RecordReconcile(false)
		return 0, fmt.Errorf("list participants: %w", err)
	}

	var (
		rebuilt int
		errs    []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.store.RecomputeLeaderboard(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("participant %d: %w", id, err))
			continue
		}
		rebuilt++
	}

	err = errors.Join(errs...)
	s.metrics.RecordReconcile(err == nil)
	return rebuilt, err
}

// Ping reports whether the backing store is reachable.
func (s *ScoringService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
