// Package export writes result rows and bookmarks to CSV or JSON files and
// the clipboard.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// WriteRowsCSV writes rows with a header of the displayed columns
func WriteRowsCSV(w io.Writer, rows []models.ResultRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(models.ResultColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(r.Cells()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// RowsToCSV exports rows to a CSV file
func RowsToCSV(rows []models.ResultRow, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteRowsCSV(file, rows)
}

// ToJSON writes any value as indented JSON to path
func ToJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}

// RowsToJSON exports rows to a JSON file
func RowsToJSON(rows []models.ResultRow, path string) error {
	if rows == nil {
		rows = []models.ResultRow{}
	}
	return ToJSON(rows, path)
}

// BookmarksToCSV exports bookmarks to a CSV file
func BookmarksToCSV(bookmarks []models.Bookmark, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	header := []string{"Name", "OID", "Operation", "Description", "Tags", "Created", "Last Used", "Usage Count"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, b := range bookmarks {
		lastUsed := ""
		if !b.LastUsed.IsZero() {
			lastUsed = b.LastUsed.Format(timeLayout)
		}
		row := []string{
			b.Name,
			b.OID,
			string(b.Operation),
			b.Description,
			strings.Join(b.Tags, ", "),
			b.CreatedAt.Format(timeLayout),
			lastUsed,
			fmt.Sprintf("%d", b.UsageCount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// FormatRow renders one row as tab-separated text
func FormatRow(r models.ResultRow) string {
	return strings.Join(r.Cells(), "\t")
}

// CopyRows puts rows on the system clipboard, one tab-separated line each
func CopyRows(rows []models.ResultRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("nothing to copy")
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = FormatRow(r)
	}
	if err := writeClipboard(strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// CopyText puts arbitrary text on the system clipboard
func CopyText(text string) error {
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}
