package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordsrs/pkg/models"
)

// HistorySheet is the sheet written by ExportHistory
const HistorySheet = "Sheet1"

var historyHeader = []string{
	"reviewed_at", "item_id", "kind", "quality", "correct", "response_ms",
	"state_before", "state_after", "stability_before", "stability_after",
	"difficulty_before", "difficulty_after", "due_after",
}

// ExportHistory writes review records to an .xlsx or .csv file, chosen by
// the extension of path.
func ExportHistory(path string, records []models.ReviewHistory) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return exportCSV(path, records)
	}
	return exportExcel(path, records)
}

func exportExcel(path string, records []models.ReviewHistory) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(HistorySheet, "A1", &historyHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, h := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			formatTime(&h.ReviewedAt), h.ItemID, string(h.Kind), h.ResponseQuality, h.IsCorrect, h.ResponseTimeMs,
			string(h.StateBefore), string(h.StateAfter), h.StabilityBefore, h.StabilityAfter,
			h.DifficultyBefore, h.DifficultyAfter, formatTime(h.DueAfter),
		}
		if err := f.SetSheetRow(HistorySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func exportCSV(path string, records []models.ReviewHistory) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(historyHeader); err != nil {
		return err
	}
	for _, h := range records {
		row := []string{
			formatTime(&h.ReviewedAt), h.ItemID, string(h.Kind), h.ResponseQuality,
			strconv.FormatBool(h.IsCorrect), strconv.FormatInt(h.ResponseTimeMs, 10),
			string(h.StateBefore), string(h.StateAfter),
			formatFloat(h.StabilityBefore), formatFloat(h.StabilityAfter),
			formatFloat(h.DifficultyBefore), formatFloat(h.DifficultyAfter),
			formatTime(h.DueAfter),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return file.Close()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
