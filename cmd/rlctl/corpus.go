package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
)

// readRows loads a corpus file. JSON files hold an array of
// {text, category}; anything else is read as CSV.
func readRows(path string) ([]corpus.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var rows []corpus.Row
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return rows, nil
	}
	rows, err := parseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

// parseCSV reads text and category columns. A header naming a "text"
// column selects columns by name; without one the first column is the text
// and the second, if any, the category.
func parseCSV(r io.Reader) ([]corpus.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty CSV")
	}

	textCol, catCol, start := 0, 1, 0
	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if i, ok := header["text"]; ok {
		textCol, catCol, start = i, -1, 1
		if j, ok := header["category"]; ok {
			catCol = j
		}
	}

	rows := make([]corpus.Row, 0, len(records)-start)
	for _, rec := range records[start:] {
		var row corpus.Row
		if textCol < len(rec) {
			row.Text = rec[textCol]
		}
		if catCol >= 0 && catCol < len(rec) {
			row.Category = rec[catCol]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
