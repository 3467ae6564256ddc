package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/domain"
	"coding-trivia-service/internal/infra/memory"
)

func TestSubmitScoresAndUpdatesLeaderboard(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()
	p := register(t, service, "alice@example.com", "go")

	res, err := service.Submit(ctx, submitReq(p.ID, 1, "I think recursion causes stack overflow", 12))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.IsCorrect || res.PointsEarned != 100 {
		t.Fatalf("expected correct answer worth 100, got %+v", res)
	}
	if res.Explanation == "" {
		t.Fatalf("expected explanation in submit result")
	}

	res, err = service.Submit(ctx, submitReq(p.ID, 2, "no idea", 20))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.IsCorrect || res.PointsEarned != 0 {
		t.Fatalf("expected wrong answer, got %+v", res)
	}

	entry, ok := store.LeaderboardEntry(p.ID)
	if !ok {
		t.Fatalf("expected leaderboard entry")
	}
	if entry.TotalPoints != 100 || entry.RoundsCompleted != 2 || entry.AverageTime != 16 {
		t.Fatalf("unexpected leaderboard entry: %+v", entry)
	}
}

func TestSubmitAcceptsInactiveRound(t *testing.T) {
	service, _ := newTestService()
	p := register(t, service, "alice@example.com", "go")

	// Round 3 is inactive; the submit path only looks rounds up by id.
	res, err := service.Submit(context.Background(), submitReq(p.ID, 3, "a nil map write panics", 5))
	if err != nil {
		t.Fatalf("submit to inactive round: %v", err)
	}
	if !res.IsCorrect {
		t.Fatalf("expected correct answer, got %+v", res)
	}
}

func TestSubmitRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()
	p := register(t, service, "alice@example.com", "go")

	_, err := service.Submit(ctx, app.SubmitRequest{RoundID: int64Ptr(1), Answer: "x"})
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "participantId") {
		t.Fatalf("expected validation error naming participantId, got %v", err)
	}

	_, err = service.Submit(ctx, app.SubmitRequest{ParticipantID: int64Ptr(p.ID), RoundID: int64Ptr(1)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty answer, got %v", err)
	}

	_, err = service.Submit(ctx, submitReq(p.ID, 999, "anything", 1))
	if !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected round not found, got %v", err)
	}

	_, err = service.Submit(ctx, submitReq(p.ID+100, 1, "anything", 1))
	if !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected participant not found, got %v", err)
	}

	if n := len(store.Submissions(p.ID)); n != 0 {
		t.Fatalf("expected no submissions to be recorded, got %d", n)
	}
}

func TestSubmitSwallowsAggregationFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingLeaderboardStore{Store: memory.NewStore(), fail: true}
	rec := &countingRecorder{}
	service := app.NewScoringService(memory.NewStaticRoundSource(testRounds()), store, app.WithMetrics(rec))
	p := register(t, service, "alice@example.com", "go")

	res, err := service.Submit(ctx, submitReq(p.ID, 1, "recursion causes stack overflow", 3))
	if err != nil {
		t.Fatalf("expected submit to succeed despite aggregation failure, got %v", err)
	}
	if !res.IsCorrect {
		t.Fatalf("expected correct answer, got %+v", res)
	}
	if n := len(store.Submissions(p.ID)); n != 1 {
		t.Fatalf("expected submission to be durable, got %d rows", n)
	}
	if _, ok := store.LeaderboardEntry(p.ID); ok {
		t.Fatalf("expected leaderboard to lag behind the submission log")
	}
	if rec.failures != 1 || rec.correct != 1 {
		t.Fatalf("expected one failure and one correct submission recorded, got %+v", rec)
	}

	// Reconciliation closes the gap once the store recovers.
	store.fail = false
	rebuilt, err := service.ReconcileLeaderboard(ctx)
	if err != nil || rebuilt != 1 {
		t.Fatalf("reconcile: rebuilt=%d err=%v", rebuilt, err)
	}
	entry, ok := store.LeaderboardEntry(p.ID)
	if !ok || entry.TotalPoints != 100 {
		t.Fatalf("expected reconciled entry, got %+v ok=%v", entry, ok)
	}
}

func TestConcurrentSubmitsBySameParticipant(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()
	p := register(t, service, "alice@example.com", "go")

	var wg sync.WaitGroup
	for _, roundID := range []int64{1, 2} {
		wg.Add(1)
		go func(roundID int64) {
			defer wg.Done()
			if _, err := service.Submit(ctx, submitReq(p.ID, roundID, correctAnswers[roundID], 10)); err != nil {
				t.Errorf("submit round %d: %v", roundID, err)
			}
		}(roundID)
	}
	wg.Wait()

	if n := len(store.Submissions(p.ID)); n != 2 {
		t.Fatalf("expected both submissions persisted, got %d", n)
	}
	entry, _ := store.LeaderboardEntry(p.ID)
	if entry.TotalPoints != 150 || entry.RoundsCompleted != 2 {
		t.Fatalf("expected leaderboard to reflect both submissions, got %+v", entry)
	}
}

func TestRegisterValidationAndConflict(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	register(t, service, "alice@example.com", "go")

	_, err := service.Register(ctx, app.RegisterRequest{Email: "bob@example.com"})
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "teamName") {
		t.Fatalf("expected validation error naming teamName, got %v", err)
	}

	_, err = service.Register(ctx, registerReq("alice@example.com", "python"))
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	stats, err := service.SystemStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalParticipants != 1 {
		t.Fatalf("expected no duplicate participant, got %d", stats.TotalParticipants)
	}
}

func TestRoundsHideAnswerKey(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	views, err := service.ListRounds(ctx)
	if err != nil {
		t.Fatalf("list rounds: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 active rounds, got %d", len(views))
	}
	if views[0].RoundNumber != 1 || views[1].RoundNumber != 2 {
		t.Fatalf("expected rounds ordered by number, got %+v", views)
	}

	if _, err := service.GetRound(ctx, 3); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected inactive round to be hidden, got %v", err)
	}
	if _, err := service.GetRound(ctx, 42); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected round not found, got %v", err)
	}
}

func TestLeaderboardClampsLimit(t *testing.T) {
	service := app.NewScoringService(memory.NewStaticRoundSource(nil), memory.NewStore(), app.WithLeaderboardLimits(50, 100))

	cases := []struct {
		in   *int
		want int
	}{
		{nil, 50},
		{intPtr(0), 1},
		{intPtr(-5), 1},
		{intPtr(10), 10},
		{intPtr(1000), 100},
	}
	for _, tc := range cases {
		if got := service.ClampLimit(tc.in); got != tc.want {
			t.Fatalf("ClampLimit(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLeaderboardOrdersAndFilters(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	alice := register(t, service, "alice@example.com", "go")
	bob := register(t, service, "bob@example.com", "go")
	carol := register(t, service, "carol@example.com", "python")

	mustSubmit(t, service, alice.ID, 1, correctAnswers[1], 30)
	mustSubmit(t, service, bob.ID, 1, correctAnswers[1], 20)
	mustSubmit(t, service, carol.ID, 2, correctAnswers[2], 10)

	board, err := service.Leaderboard(ctx, "", nil)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	if board[0].ParticipantID != bob.ID || board[1].ParticipantID != alice.ID || board[2].ParticipantID != carol.ID {
		t.Fatalf("expected bob, alice, carol; got %+v", board)
	}
	if board[0].Rank != 1 || board[1].Rank != 2 || board[2].Rank != 3 {
		t.Fatalf("unexpected ranks: %+v", board)
	}

	python, err := service.Leaderboard(ctx, "python", nil)
	if err != nil || len(python) != 1 || python[0].Rank != 1 {
		t.Fatalf("unexpected python board %+v err=%v", python, err)
	}
	unknown, err := service.Leaderboard(ctx, "fortran", nil)
	if err != nil || len(unknown) != 0 {
		t.Fatalf("expected empty board for unknown language, got %+v err=%v", unknown, err)
	}
}

func TestProgressMatchesSubmissions(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	p := register(t, service, "alice@example.com", "go")

	mustSubmit(t, service, p.ID, 1, correctAnswers[1], 10)
	mustSubmit(t, service, p.ID, 1, "wrong", 20)

	progress, err := service.Progress(ctx, p.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.TotalSubmissions != 2 || progress.CorrectAnswers != 1 || progress.TotalPoints != 100 || progress.AverageTime != 15 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	if progress.TeamName == "" || progress.ParticipantName == "" {
		t.Fatalf("expected identity fields joined in: %+v", progress)
	}

	if _, err := service.Progress(ctx, 12345); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected participant not found, got %v", err)
	}
}

var correctAnswers = map[int64]string{
	1: "recursion causes stack overflow when base case missing",
	2: "channels synchronize goroutines",
}

func testRounds() []domain.Round {
	return []domain.Round{
		{
			ID: 1, RoundNumber: 1, Title: "Base case", Language: "go", Difficulty: "easy", Points: 100, TimeLimit: 60,
			CorrectAnswer: correctAnswers[1], Explanation: "Without a base case the call stack grows until it overflows.", IsActive: true,
		},
		{
			ID: 2, RoundNumber: 2, Title: "Channels", Language: "go", Difficulty: "medium", Points: 50, TimeLimit: 90,
			CorrectAnswer: correctAnswers[2], Explanation: "Unbuffered channel operations block until both sides are ready.", IsActive: true,
		},
		{
			ID: 3, RoundNumber: 3, Title: "Maps", Language: "go", Difficulty: "easy", Points: 10, TimeLimit: 30,
			CorrectAnswer: "nil map write panics", Explanation: "Writes to a nil map panic at runtime.", IsActive: false,
		},
	}
}

func newTestService() (*app.ScoringService, *memory.Store) {
	store := memory.NewStore()
	return app.NewScoringService(memory.NewStaticRoundSource(testRounds()), store), store
}

func registerReq(email, language string) app.RegisterRequest {
	return app.RegisterRequest{
		TeamName:        "Team " + email,
		ParticipantName: "Player " + email,
		Email:           email,
		Phone:           "+1-555-0100",
		Language:        language,
		Experience:      "intermediate",
		TeamType:        "solo",
	}
}

func register(t *testing.T, service *app.ScoringService, email, language string) domain.Participant {
	t.Helper()
	p, err := service.Register(context.Background(), registerReq(email, language))
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return p
}

func submitReq(participantID, roundID int64, answer string, timeTaken int) app.SubmitRequest {
	return app.SubmitRequest{
		ParticipantID: int64Ptr(participantID),
		RoundID:       int64Ptr(roundID),
		Answer:        answer,
		TimeTaken:     intPtr(timeTaken),
	}
}

func mustSubmit(t *testing.T, service *app.ScoringService, participantID, roundID int64, answer string, timeTaken int) domain.SubmitResult {
	t.Helper()
	res, err := service.Submit(context.Background(), submitReq(participantID, roundID, answer, timeTaken))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res
}

type failingLeaderboardStore struct {
	*memory.Store
	fail bool
}

func (s *failingLeaderboardStore) RecomputeLeaderboard(ctx context.Context, participantID int64) (domain.LeaderboardEntry, error) {
	if s.fail {
		return domain.LeaderboardEntry{}, errors.New("leaderboard table locked")
	}
	return s.Store.RecomputeLeaderboard(ctx, participantID)
}

type countingRecorder struct {
	correct, incorrect, failures, reconciles int
}

func (r *countingRecorder) RecordSubmission(correct bool) {
	if correct {
		r.correct++
	} else {
		r.incorrect++
	}
}
func (r *countingRecorder) RecordAggregationFailure() { r.failures++ }
func (r *countingRecorder) RecordReconcile(bool)      { r.reconciles++ }

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
