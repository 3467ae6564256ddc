// Package export renders leaderboard snapshots as spreadsheets.
package export

import (
	"fmt"
	"io"

	"coding-trivia-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Leaderboard"

var headers = []string{"Rank", "Participant ID", "Team", "Participant", "Language", "Total Points", "Rounds Completed", "Average Time (s)"}

// WriteLeaderboardXLSX writes entries, in the order given, as a single-sheet workbook.
func WriteLeaderboardXLSX(w io.Writer, entries []domain.RankedEntry) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	// Rename the default sheet rather than leaving an empty Sheet1 behind.
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f); err != nil {
		return err
	}

	for i, e := range entries {
		row := []any{e.Rank, e.ParticipantID, e.TeamName, e.ParticipantName, e.Language, e.TotalPoints, e.RoundsCompleted, e.AverageTime}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "C", "D", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}
