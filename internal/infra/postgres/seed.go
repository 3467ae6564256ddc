package postgres

import (
	"context"
	"fmt"

	"coding-trivia-service/internal/domain"
	"github.com/uptrace/bun"
)

type roundRow struct {
	bun.BaseModel `bun:"table:rounds"`

	ID            int64  `bun:"id,pk,autoincrement"`
	RoundNumber   int    `bun:"round_number,notnull"`
	Title         string `bun:"title,notnull"`
	Description   string `bun:"description,notnull"`
	Language      string `bun:"language,notnull"`
	Difficulty    string `bun:"difficulty,notnull"`
	Points        int    `bun:"points,notnull"`
	Hint          string `bun:"hint,notnull"`
	TimeLimit     int    `bun:"time_limit,notnull"`
	CorrectAnswer string `bun:"correct_answer,notnull"`
	Explanation   string `bun:"explanation,notnull"`
	IsActive      bool   `bun:"is_active,notnull"`
}

// UpsertRounds inserts rounds keyed by round number, overwriting existing definitions.
// Round ids are preserved so existing submissions keep pointing at the same round.
func UpsertRounds(ctx context.Context, db bun.IDB, rounds []domain.Round) (int, error) {
	if len(rounds) == 0 {
		return 0, nil
	}
	rows := make([]roundRow, 0, len(rounds))
	for _, r := range rounds {
		rows = append(rows, roundRow{
			RoundNumber:   r.RoundNumber,
			Title:         r.Title,
			Description:   r.Description,
			Language:      r.Language,
			Difficulty:    r.Difficulty,
			Points:        r.Points,
			Hint:          r.Hint,
			TimeLimit:     r.TimeLimit,
			CorrectAnswer: r.CorrectAnswer,
			Explanation:   r.Explanation,
			IsActive:      r.IsActive,
		})
	}

	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (round_number) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("language = EXCLUDED.language").
		Set("difficulty = EXCLUDED.difficulty").
		Set("points = EXCLUDED.points").
		Set("hint = EXCLUDED.hint").
		Set("time_limit = EXCLUDED.time_limit").
		Set("correct_answer = EXCLUDED.correct_answer").
		Set("explanation = EXCLUDED.explanation").
		Set("is_active = EXCLUDED.is_active").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert rounds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(rows), nil
	}
	return int(n), nil
}
