// Package tabular reads delimited text files and spreadsheet exports into
// the domain table, resolving the character encoding first. CSV is the
// primary format; .xlsx survey exports are accepted through the same reader.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"lpcore/domain/table"
	"lpcore/internal"
	"lpcore/internal/errors"
)

// DataReader reads CSV and Excel files into a Table
type DataReader struct {
	filePath string
	fileType string // "csv" or "xlsx"
	log      *internal.Logger
}

// NewDataReader creates a reader for the given path, picking the parse mode
// from the file extension.
func NewDataReader(filePath string) *DataReader {
	fileType := "csv"
	if strings.ToLower(filepath.Ext(filePath)) == ".xlsx" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType, log: internal.DefaultLogger}
}

// Read parses the file into a Table. A missing file fails immediately; an
// empty file yields a valid zero-row table.
func (r *DataReader) Read() (*table.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.FileNotFound(r.filePath)
	}

	switch r.fileType {
	case "xlsx":
		return r.readExcel()
	default:
		return r.readCSV()
	}
}

func (r *DataReader) readCSV() (*table.Table, error) {
	text, encodingName, err := DecodeFile(r.filePath)
	if err != nil {
		return nil, err
	}
	r.log.Debug("[DataReader] decoded %s as %s", r.filePath, encodingName)

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1 // tolerate ragged rows, the table pads them
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}

	name := filepath.Base(r.filePath)
	if len(records) == 0 {
		return table.New(name, nil), nil
	}
	return buildTable(name, records), nil
}

func (r *DataReader) readExcel() (*table.Table, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.New(filepath.Base(r.filePath), nil), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	r.log.Debug("[DataReader] read sheet %s (%d rows)", sheets[0], len(rows))

	name := filepath.Base(r.filePath)
	if len(rows) == 0 {
		return table.New(name, nil), nil
	}
	return buildTable(name, rows), nil
}

func buildTable(name string, records [][]string) *table.Table {
	t := table.New(name, records[0])
	for _, rec := range records[1:] {
		t.AppendRow(rec)
	}
	return t
}
