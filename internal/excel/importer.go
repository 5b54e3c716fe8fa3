package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordsrs/pkg/models"
)

// ItemSeeder stores new items that are not tracked yet
type ItemSeeder interface {
	Seed(ctx context.Context, states []models.ItemState) (int, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath    string          // Path to the Excel or CSV file
	UserID      int64           // Owner of the imported items
	DefaultKind models.ItemKind // Used when the kind column is empty
	ItemColumn  string          // Column with the item ID
	KindColumn  string          // Column with the item kind
	GroupColumn string          // Column with the group tag
	SheetName   string          // Name of the sheet to import
	StartRow    int             // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		DefaultKind: models.KindCard,
		ItemColumn:  "A",
		KindColumn:  "B",
		GroupColumn: "C",
		SheetName:   "Sheet1",
		StartRow:    2, // skip header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportItems registers every item listed in an Excel or CSV file as a new
// item of cfg.UserID. Items the user already has are left untouched.
func ImportItems(ctx context.Context, cfg ImportConfig, seeder ItemSeeder) (*ImportResult, error) {
	if cfg.UserID == 0 {
		return nil, errors.New("import needs a user id")
	}
	if cfg.StartRow < 1 {
		cfg.StartRow = 1
	}

	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(cfg.FilePath)) == ".csv" {
		rows, err = readCSV(cfg.FilePath)
	} else {
		rows, err = readExcel(cfg.FilePath, cfg.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	seen := make(map[string]bool)
	var states []models.ItemState

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow || isBlank(row) {
			continue
		}
		result.TotalProcessed++

		state, err := parseRow(row, cfg)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		key := string(state.Kind) + "/" + state.ItemID
		if seen[key] {
			result.Skipped++
			continue
		}
		seen[key] = true
		states = append(states, state)
	}

	if len(states) == 0 {
		return result, nil
	}
	created, err := seeder.Seed(ctx, states)
	if err != nil {
		return nil, fmt.Errorf("failed to store imported items: %w", err)
	}
	result.Created = created
	result.Skipped += len(states) - created
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(row []string, cfg ImportConfig) (models.ItemState, error) {
	itemID := cell(row, cfg.ItemColumn)
	if itemID == "" {
		return models.ItemState{}, errors.New("item id cannot be empty")
	}

	kind := cfg.DefaultKind
	if raw := strings.ToLower(cell(row, cfg.KindColumn)); raw != "" {
		kind = models.ItemKind(raw)
	}
	if kind != models.KindCard && kind != models.KindQuiz {
		return models.ItemState{}, fmt.Errorf("unknown item kind %q", kind)
	}

	state := models.NewItemState(cfg.UserID, itemID, kind)
	state.GroupTag = cell(row, cfg.GroupColumn)
	return state, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(row[idx]), "\"")
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
