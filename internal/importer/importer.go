// Package importer loads contact lists from CSV and XLSX files for
// appending to the lead sheet.
package importer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Load reads contacts from the given file, dispatching on extension.
// Duplicate email addresses keep the first occurrence.
func Load(path string) ([]model.Contact, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: open %s", path)
		}
		defer f.Close()
		return FromCSV(f)
	case ".xlsx":
		return FromXLSX(path)
	default:
		return nil, eris.Errorf("importer: unsupported file type %s", filepath.Ext(path))
	}
}

// FromCSV parses contacts from CSV data with a header row.
func FromCSV(r io.Reader) ([]model.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv")
	}
	return fromRows(records)
}

// FromXLSX parses contacts from the first sheet of an XLSX workbook.
func FromXLSX(path string) ([]model.Contact, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]model.Contact, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	cols := headerIndex(rows[0])
	if cols["email"] < 0 {
		return nil, eris.New("importer: no email column found")
	}

	seen := make(map[string]bool)
	var contacts []model.Contact
	for _, row := range rows[1:] {
		c := model.Contact{
			Organization: field(row, cols["organization"]),
			Website:      field(row, cols["website"]),
			Phone:        field(row, cols["phone"]),
			Email:        strings.TrimSpace(field(row, cols["email"])),
			Notes:        field(row, cols["notes"]),
		}
		if c.Email == "" {
			continue
		}
		key := strings.ToLower(c.Email)
		if seen[key] {
			zap.L().Debug("importer: skipping duplicate email", zap.String("email", c.Email))
			continue
		}
		seen[key] = true
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func headerIndex(header []string) map[string]int {
	variants := map[string][]string{
		"organization": {"organization", "org", "business", "company", "name"},
		"website":      {"website", "url", "site", "web"},
		"phone":        {"phone", "phone number", "telephone"},
		"email":        {"email", "email address", "e-mail"},
		"notes":        {"notes", "note", "research", "context"},
	}

	cols := map[string]int{
		"organization": -1, "website": -1, "phone": -1, "email": -1, "notes": -1,
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for key, names := range variants {
			if cols[key] >= 0 {
				continue
			}
			for _, v := range names {
				if v == name {
					cols[key] = i
					break
				}
			}
		}
	}
	return cols
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
