package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/edurag/edurag/internal/core/domain"
)

func extractCSV(data []byte, filename string) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "parse csv", err)
	}
	return renderTable(filename, rows)
}

func extractXLSX(data []byte, filename string) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", domain.WrapError(domain.ErrExtraction, "open xlsx", errors.New("workbook has no sheets"))
	}

	var parts []string
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "read xlsx sheet", err)
		}
		if len(rows) == 0 {
			continue
		}
		text, err := renderTable(fmt.Sprintf("%s (sheet %s)", filename, sheet), rows)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// renderTable turns tabular rows into prose the retriever can match:
// column names, per-numeric-column statistics and a sample of rows.
func renderTable(title string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", domain.WrapError(domain.ErrEmptyContent, "render table", fmt.Errorf("%s has no rows", title))
	}

	header := rows[0]
	body := rows[1:]

	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %s\n", title)
	fmt.Fprintf(&b, "Column Names: %s\n", strings.Join(header, ", "))
	fmt.Fprintf(&b, "Rows: %d\n", len(body))

	if stats := numericSummary(header, body); stats != "" {
		b.WriteString("\nData Summary:\n")
		b.WriteString(stats)
	}

	b.WriteString("\nSample Data:\n")
	limit := len(body)
	if limit > 10 {
		limit = 10
	}
	for _, row := range body[:limit] {
		pairs := make([]string, 0, len(row))
		for i, cell := range row {
			name := fmt.Sprintf("col%d", i+1)
			if i < len(header) && header[i] != "" {
				name = header[i]
			}
			pairs = append(pairs, fmt.Sprintf("%s=%s", name, cell))
		}
		b.WriteString(strings.Join(pairs, ", "))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func numericSummary(header []string, body [][]string) string {
	var b strings.Builder
	for col, name := range header {
		var (
			count    int
			min, max float64
			sum      float64
		)
		for _, row := range body {
			if col >= len(row) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				continue
			}
			if count == 0 || v < min {
				min = v
			}
			if count == 0 || v > max {
				max = v
			}
			sum += v
			count++
		}
		// columns that are mostly non-numeric get no stats line
		if count == 0 || count*2 < len(body) {
			continue
		}
		if name == "" {
			name = fmt.Sprintf("col%d", col+1)
		}
		fmt.Fprintf(&b, "- %s: count=%d min=%g max=%g mean=%.2f\n", name, count, min, max, sum/float64(count))
	}
	return b.String()
}
