// Package sheets turns uploaded Excel or CSV files into header-keyed rows.
package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"coattainment-server-go/models"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoSheets is returned for workbooks without a single sheet
	ErrNoSheets = errors.New("excel file does not contain any sheets")
	// ErrEmptyFile is returned when the file has no header row
	ErrEmptyFile = errors.New("file has no header row")
	// ErrStudentColumns is returned when the roster has no name or roll column
	ErrStudentColumns = errors.New("could not detect student name and roll number columns")
)

// Table is the first sheet of a file: its header row and the rows below it
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Parse reads a .csv file as CSV and anything else as an Excel workbook.
// Row order follows the file; blank rows are dropped.
func Parse(filename string, r io.Reader) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		rows, err = readCSV(r)
	} else {
		rows, err = readWorkbook(r)
	}
	if err != nil {
		return nil, err
	}
	return newTable(rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	return rows, nil
}

func newTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	headers := uniqueHeaders(rows[0])

	t := &Table{Headers: headers, Rows: make([]map[string]string, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = strings.TrimSpace(row[i])
			} else {
				rec[h] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// uniqueHeaders trims the header row and renames repeats to name_1, name_2...
func uniqueHeaders(row []string) []string {
	headers := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h != "" && seen[h] {
			base := h
			for n := 1; seen[h]; n++ {
				h = base + "_" + strconv.Itoa(n)
			}
			log.Printf("Duplicate column %q renamed to %q", base, h)
		}
		seen[h] = true
		headers[i] = h
	}
	return headers
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// DetectStudentColumns picks the first header mentioning "name" and the first
// mentioning "roll" or "id", case-insensitively.
func DetectStudentColumns(headers []string) (nameCol, rollCol string, err error) {
	for _, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		if nameCol == "" && strings.Contains(lower, "name") {
			nameCol = h
		}
		if rollCol == "" && (strings.Contains(lower, "roll") || strings.Contains(lower, "id")) {
			rollCol = h
		}
	}
	if nameCol == "" || rollCol == "" {
		return "", "", ErrStudentColumns
	}
	return nameCol, rollCol, nil
}

// Students converts a roster table into students, in file order
func Students(t *Table) ([]models.Student, error) {
	nameCol, rollCol, err := DetectStudentColumns(t.Headers)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(t.Rows))
	for _, row := range t.Rows {
		students = append(students, models.Student{
			Roll: strings.TrimSpace(row[rollCol]),
			Name: strings.TrimSpace(row[nameCol]),
		})
	}
	return students, nil
}

// MarkRecords converts a marks table into records, in file order
func MarkRecords(t *Table) []models.MarkRecord {
	records := make([]models.MarkRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, models.MarkRecord(row))
	}
	return records
}
