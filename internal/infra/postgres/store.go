package postgres

import (
	"context"
	"errors"
	"fmt"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ app.Store = (*Store)(nil)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	submissionsParticipantFK = "submissions_participant_id_fkey"
)

// Store implements app.Store on a shared pgx pool. The pool is owned by the caller.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) CreateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO participants (team_name, participant_name, email, phone, language, experience, team_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		p.TeamName, p.ParticipantName, p.Email, p.Phone, p.Language, p.Experience, p.TeamType,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return domain.Participant{}, domain.ErrDuplicateEmail
		}
		return domain.Participant{}, unavailable("insert participant", err)
	}
	return p, nil
}

func (s *Store) GetParticipant(ctx context.Context, id int64) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx, `
		SELECT id, team_name, participant_name, email, phone, language, experience, team_type, created_at
		FROM participants WHERE id = $1`, id,
	).Scan(&p.ID, &p.TeamName, &p.ParticipantName, &p.Email, &p.Phone, &p.Language, &p.Experience, &p.TeamType, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, unavailable("get participant", err)
	}
	return p, nil
}

func (s *Store) InsertSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO submissions (participant_id, round_id, answer, is_correct, points_earned, time_taken)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, submitted_at`,
		sub.ParticipantID, sub.RoundID, sub.Answer, sub.IsCorrect, sub.PointsEarned, sub.TimeTaken,
	).Scan(&sub.ID, &sub.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			if pgErr.ConstraintName == submissionsParticipantFK {
				return domain.Submission{}, domain.ErrParticipantNotFound
			}
			return domain.Submission{}, domain.ErrRoundNotFound
		}
		return domain.Submission{}, unavailable("insert submission", err)
	}
	return sub, nil
}

// RecomputeLeaderboard rebuilds the participant's entry inside one transaction. The
// participant row lock serializes recomputations for the same participant, and the
// aggregate statement runs after the lock is granted, so it sees every submission
// committed before it, including the one that triggered the call. Other participants
// are not blocked.
func (s *Store) RecomputeLeaderboard(ctx context.Context, participantID int64) (domain.LeaderboardEntry, error) {
	var entry domain.LeaderboardEntry
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM participants WHERE id = $1 FOR NO KEY UPDATE`, participantID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrParticipantNotFound
		}
		if err != nil {
			return fmt.Errorf("lock participant: %w", err)
		}

		return tx.QueryRow(ctx, `
			INSERT INTO leaderboard (participant_id, total_points, rounds_completed, average_time, updated_at)
			SELECT $1::bigint,
			       COALESCE(SUM(points_earned), 0),
			       COUNT(DISTINCT round_id),
			       COALESCE(AVG(time_taken), 0),
			       now()
			FROM submissions
			WHERE participant_id = $1::bigint
			ON CONFLICT (participant_id) DO UPDATE SET
			    total_points     = EXCLUDED.total_points,
			    rounds_completed = EXCLUDED.rounds_completed,
			    average_time     = EXCLUDED.average_time,
			    updated_at       = EXCLUDED.updated_at
			RETURNING participant_id, total_points, rounds_completed, average_time, updated_at`,
			participantID,
		).Scan(&entry.ParticipantID, &entry.TotalPoints, &entry.RoundsCompleted, &entry.AverageTime, &entry.UpdatedAt)
	})
	if errors.Is(err, domain.ErrParticipantNotFound) {
		return domain.LeaderboardEntry{}, err
	}
	if err != nil {
		return domain.LeaderboardEntry{}, unavailable("recompute leaderboard", err)
	}
	return entry, nil
}

func (s *Store) ListLeaderboard(ctx context.Context, q domain.LeaderboardQuery) ([]domain.RankedEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DENSE_RANK() OVER (ORDER BY l.total_points DESC, l.average_time ASC),
		       l.participant_id, p.team_name, p.participant_name, p.language,
		       l.total_points, l.rounds_completed, l.average_time
		FROM leaderboard l
		JOIN participants p ON p.id = l.participant_id
		WHERE ($1::text = '' OR p.language = $1::text)
		ORDER BY l.total_points DESC, l.average_time ASC, l.participant_id ASC
		LIMIT $2`,
		q.Language, q.Limit,
	)
	if err != nil {
		return nil, unavailable("list leaderboard", err)
	}
	defer rows.Close()

	entries := []domain.RankedEntry{}
	for rows.Next() {
		var e domain.RankedEntry
		if err := rows.Scan(&e.Rank, &e.ParticipantID, &e.TeamName, &e.ParticipantName, &e.Language,
			&e.TotalPoints, &e.RoundsCompleted, &e.AverageTime); err != nil {
			return nil, unavailable("scan leaderboard", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list leaderboard", err)
	}
	return entries, nil
}

func (s *Store) ParticipantsWithSubmissions(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT participant_id FROM submissions ORDER BY participant_id`)
	if err != nil {
		return nil, unavailable("list submitters", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan submitter", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list submitters", err)
	}
	return ids, nil
}

func (s *Store) Progress(ctx context.Context, participantID int64) (domain.Progress, error) {
	var p domain.Progress
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.team_name, p.participant_name, p.language,
		       COUNT(s.id),
		       COALESCE(SUM(s.points_earned), 0),
		       COUNT(s.id) FILTER (WHERE s.is_correct),
		       COALESCE(AVG(s.time_taken), 0)::float8
		FROM participants p
		LEFT JOIN submissions s ON s.participant_id = p.id
		WHERE p.id = $1
		GROUP BY p.id`, participantID,
	).Scan(&p.ParticipantID, &p.TeamName, &p.ParticipantName, &p.Language,
		&p.TotalSubmissions, &p.TotalPoints, &p.CorrectAnswers, &p.AverageTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Progress{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Progress{}, unavailable("participant progress", err)
	}
	return p, nil
}

func (s *Store) SystemStats(ctx context.Context) (domain.SystemStats, error) {
	stats := domain.SystemStats{Languages: []domain.LanguageCount{}}
	err := s.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM participants),
		       (SELECT COUNT(*) FROM submissions),
		       (SELECT COUNT(*) FROM submissions WHERE is_correct)`,
	).Scan(&stats.TotalParticipants, &stats.TotalSubmissions, &stats.CorrectSubmissions)
	if err != nil {
		return domain.SystemStats{}, unavailable("system stats", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT language, COUNT(*) FROM participants
		GROUP BY language
		ORDER BY COUNT(*) DESC, language ASC`)
	if err != nil {
		return domain.SystemStats{}, unavailable("language stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lc domain.LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			return domain.SystemStats{}, unavailable("scan language stats", err)
		}
		stats.Languages = append(stats.Languages, lc)
	}
	if err := rows.Err(); err != nil {
		return domain.SystemStats{}, unavailable("language stats", err)
	}
	return stats, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
