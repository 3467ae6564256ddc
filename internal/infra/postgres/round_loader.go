package postgres

import (
	"context"
	"errors"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ app.RoundCatalog = (*RoundLoader)(nil)

const roundColumns = `id, round_number, title, description, language, difficulty, points, hint,
	time_limit, correct_answer, explanation, is_active`

// RoundLoader reads rounds from Postgres. It is usually wrapped by a cache.
type RoundLoader struct {
	pool *pgxpool.Pool
}

func NewRoundLoader(pool *pgxpool.Pool) *RoundLoader {
	return &RoundLoader{pool: pool}
}

func (l *RoundLoader) ListActiveRounds(ctx context.Context) ([]domain.Round, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+roundColumns+` FROM rounds WHERE is_active ORDER BY round_number`)
	if err != nil {
		return nil, unavailable("list rounds", err)
	}
	defer rows.Close()

	rounds := []domain.Round{}
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, unavailable("scan round", err)
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list rounds", err)
	}
	return rounds, nil
}

func (l *RoundLoader) GetRound(ctx context.Context, id int64) (domain.Round, error) {
	r, err := scanRound(l.pool.QueryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	if err != nil {
		return domain.Round{}, unavailable("get round", err)
	}
	return r, nil
}

func scanRound(row pgx.Row) (domain.Round, error) {
	var r domain.Round
	err := row.Scan(&r.ID, &r.RoundNumber, &r.Title, &r.Description, &r.Language, &r.Difficulty,
		&r.Points, &r.Hint, &r.TimeLimit, &r.CorrectAnswer, &r.Explanation, &r.IsActive)
	return r, err
}
