package contact

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/sheets"
)

// column name variants accepted when mapping the header row.
var (
	orgHeaders       = []string{"organization", "org", "business", "company", "name"}
	websiteHeaders   = []string{"website", "url", "site", "web"}
	phoneHeaders     = []string{"phone", "phone number", "telephone"}
	emailHeaders     = []string{"email", "email address", "e-mail"}
	notesHeaders     = []string{"notes", "note", "research", "context"}
	contactedHeaders = []string{"contacted", "contacted?", "emailed", "emailed?", "sent"}
)

// columnMap locates each contact field in the header row. An index of
// -1 means the sheet has no such column.
type columnMap struct {
	org, website, phone, email, notes, contacted int
}

// SheetStore implements Store over a spreadsheet table. All writes go
// through a whole-table read-modify-write cycle guarded by a single
// mutex, so concurrent workers serialize on the sheet.
type SheetStore struct {
	client sheets.Client
	table  string

	mu     sync.Mutex
	cached [][]string
}

// NewSheetStore creates a SheetStore over the named table.
func NewSheetStore(client sheets.Client, table string) *SheetStore {
	return &SheetStore{client: client, table: table}
}

func (s *SheetStore) rows(ctx context.Context) ([][]string, error) {
	if s.cached != nil {
		return s.cached, nil
	}
	rows, err := s.client.ReadAll(ctx, s.table)
	if err != nil {
		return nil, eris.Wrap(err, "contact: read table")
	}
	s.cached = rows
	return rows, nil
}

func (s *SheetStore) writeRows(ctx context.Context, rows [][]string) error {
	if err := s.client.WriteAll(ctx, s.table, rows); err != nil {
		s.cached = nil
		return eris.Wrap(err, "contact: write table")
	}
	s.cached = rows
	return nil
}

// List implements Store.
func (s *SheetStore) List(ctx context.Context) ([]model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cols := mapColumns(rows[0])
	contacts := make([]model.Contact, 0, len(rows)-1)
	for _, row := range rows[1:] {
		contacts = append(contacts, rowToContact(row, cols))
	}
	return contacts, nil
}

// Get implements Store.
func (s *SheetStore) Get(ctx context.Context, email string) (*model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cols := mapColumns(rows[0])
	want := normalizeEmail(email)
	for _, row := range rows[1:] {
		c := rowToContact(row, cols)
		if normalizeEmail(c.Email) == want {
			return &c, nil
		}
	}
	return nil, nil
}

// MarkContacted implements Store.
func (s *SheetStore) MarkContacted(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return eris.New("contact: table is empty")
	}
	cols := mapColumns(rows[0])
	if cols.contacted < 0 {
		rows = addContactedColumn(rows)
		cols = mapColumns(rows[0])
	}

	want := normalizeEmail(email)
	changed := 0
	for i, row := range rows[1:] {
		c := rowToContact(row, cols)
		if normalizeEmail(c.Email) != want {
			continue
		}
		rows[i+1] = setCell(row, cols.contacted, "TRUE")
		changed++
	}
	if changed == 0 {
		return eris.Errorf("contact: no row found for %s", email)
	}
	if changed > 1 {
		zap.L().Debug("contact: consolidated duplicate rows",
			zap.String("email", email), zap.Int("rows", changed))
	}
	return s.writeRows(ctx, rows)
}

// AlreadyContacted implements Store.
func (s *SheetStore) AlreadyContacted(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(ctx)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	cols := mapColumns(rows[0])
	if cols.contacted < 0 {
		return false, nil
	}

	want := normalizeEmail(email)
	any := false
	var pending []int
	for i, row := range rows[1:] {
		c := rowToContact(row, cols)
		if normalizeEmail(c.Email) != want {
			continue
		}
		if c.Contacted {
			any = true
		} else {
			pending = append(pending, i+1)
		}
	}
	if !any {
		return false, nil
	}
	if len(pending) > 0 {
		for _, i := range pending {
			rows[i] = setCell(rows[i], cols.contacted, "TRUE")
		}
		zap.L().Info("contact: flagging duplicate rows for already contacted email",
			zap.String("email", email), zap.Int("rows", len(pending)))
		if err := s.writeRows(ctx, rows); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Refresh implements Store.
func (s *SheetStore) Refresh() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Append implements Store.
func (s *SheetStore) Append(ctx context.Context, contacts []model.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.rows(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		rows = [][]string{{"Organization", "Website", "Phone", "Email", "Notes", "Contacted"}}
	}
	cols := mapColumns(rows[0])
	width := len(rows[0])
	for _, c := range contacts {
		row := make([]string, width)
		row = setCell(row, cols.org, c.Organization)
		row = setCell(row, cols.website, c.Website)
		row = setCell(row, cols.phone, c.Phone)
		row = setCell(row, cols.email, c.Email)
		row = setCell(row, cols.notes, c.Notes)
		if cols.contacted >= 0 {
			val := "FALSE"
			if c.Contacted {
				val = "TRUE"
			}
			row = setCell(row, cols.contacted, val)
		}
		rows = append(rows, row)
	}
	return s.writeRows(ctx, rows)
}

func mapColumns(header []string) columnMap {
	cols := columnMap{org: -1, website: -1, phone: -1, email: -1, notes: -1, contacted: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.org < 0 && contains(orgHeaders, name):
			cols.org = i
		case cols.website < 0 && contains(websiteHeaders, name):
			cols.website = i
		case cols.phone < 0 && contains(phoneHeaders, name):
			cols.phone = i
		case cols.email < 0 && contains(emailHeaders, name):
			cols.email = i
		case cols.notes < 0 && contains(notesHeaders, name):
			cols.notes = i
		case cols.contacted < 0 && contains(contactedHeaders, name):
			cols.contacted = i
		}
	}
	return cols
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// rowToContact tolerates rows shorter than the header.
func rowToContact(row []string, cols columnMap) model.Contact {
	return model.Contact{
		Organization: cell(row, cols.org),
		Website:      cell(row, cols.website),
		Phone:        cell(row, cols.phone),
		Email:        strings.TrimSpace(cell(row, cols.email)),
		Notes:        cell(row, cols.notes),
		Contacted:    truthy(cell(row, cols.contacted)),
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func setCell(row []string, i int, val string) []string {
	if i < 0 {
		return row
	}
	for len(row) <= i {
		row = append(row, "")
	}
	row[i] = val
	return row
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}

func addContactedColumn(rows [][]string) [][]string {
	rows[0] = append(rows[0], "Contacted")
	return rows
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
