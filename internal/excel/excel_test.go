package excel

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/wordsrs/pkg/models"
)

type recordingSeeder struct {
	states   []models.ItemState
	existing map[string]bool
}

func (r *recordingSeeder) Seed(_ context.Context, states []models.ItemState) (int, error) {
	created := 0
	for _, s := range states {
		r.states = append(r.states, s)
		if !r.existing[s.ItemID] {
			created++
		}
	}
	return created, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportItemsFromCSV(t *testing.T) {
	path := writeFile(t, "deck.csv", "item,kind,group\n"+
		"apple,card,fruit\n"+
		"\"pear\",,fruit\n"+
		"q-17,quiz,capitals\n"+
		",card,fruit\n"+
		"kiwi,essay,fruit\n"+
		"apple,card,fruit\n"+
		"\n")

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.UserID = 3
	seeder := &recordingSeeder{existing: map[string]bool{"pear": true}}

	res, err := ImportItems(context.Background(), cfg, seeder)
	require.NoError(t, err)

	assert.Equal(t, 6, res.TotalProcessed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, res.Errors, 2)

	require.Len(t, seeder.states, 3)
	assert.Equal(t, "apple", seeder.states[0].ItemID)
	assert.Equal(t, "fruit", seeder.states[0].GroupTag)
	assert.Equal(t, models.KindCard, seeder.states[1].Kind)
	assert.Equal(t, models.KindQuiz, seeder.states[2].Kind)
	for _, s := range seeder.states {
		assert.Equal(t, int64(3), s.UserID)
		assert.Equal(t, models.StateNew, s.State)
	}
}

func TestImportItemsFromExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"item", "kind", "group"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"der Hund", "card", "animals"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"q-1", "QUIZ", ""}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.UserID = 3
	seeder := &recordingSeeder{}

	res, err := ImportItems(context.Background(), cfg, seeder)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, seeder.states, 2)
	assert.Equal(t, "der Hund", seeder.states[0].ItemID)
	assert.Equal(t, "animals", seeder.states[0].GroupTag)
	assert.Equal(t, models.KindQuiz, seeder.states[1].Kind)
}

func TestImportItemsNeedsUser(t *testing.T) {
	_, err := ImportItems(context.Background(), DefaultImportConfig(), &recordingSeeder{})
	assert.Error(t, err)
}

func historyFixture() []models.ReviewHistory {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	due := at.Add(72 * time.Hour)
	return []models.ReviewHistory{
		{ID: "1", UserID: 1, ItemID: "apple", Kind: models.KindCard, Rating: 3, IsCorrect: true,
			ResponseQuality: "good", StabilityBefore: 0, StabilityAfter: 3.1262,
			DifficultyBefore: 0, DifficultyAfter: 5.3, StateBefore: models.StateNew,
			StateAfter: models.StateReview, DueAfter: &due, ReviewedAt: at},
		{ID: "2", UserID: 1, ItemID: "q-17", Kind: models.KindQuiz, IsCorrect: false, ResponseTimeMs: 7000,
			ResponseQuality: "again", StateBefore: models.StateReview, StateAfter: models.StateRelearning,
			ReviewedAt: at.Add(time.Hour)},
	}
}

func TestExportHistoryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, ExportHistory(path, historyFixture()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, historyHeader, rows[0])
	assert.Equal(t, []string{
		"2024-05-06T07:08:09Z", "apple", "card", "good", "true", "0",
		"new", "review", "0.0000", "3.1262", "0.0000", "5.3000", "2024-05-09T07:08:09Z",
	}, rows[1])
	assert.Equal(t, "7000", rows[2][5])
	assert.Equal(t, "", rows[2][12])
}

func TestExportHistoryExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, ExportHistory(path, historyFixture()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(HistorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, historyHeader, rows[0])
	assert.Equal(t, "apple", rows[1][1])
	assert.Equal(t, "q-17", rows[2][1])
	assert.Equal(t, "relearning", rows[2][7])
}
