// Package contact persists the lead list behind a spreadsheet-backed
// store with a whole-table read-modify-write cycle.
package contact

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Store is the contact persistence surface used by the outreach run.
type Store interface {
	// List returns every contact row in sheet order.
	List(ctx context.Context) ([]model.Contact, error)
	// Get returns the first contact with the given email address.
	Get(ctx context.Context, email string) (*model.Contact, error)
	// MarkContacted sets the contacted flag on every row carrying the
	// email address, consolidating duplicates.
	MarkContacted(ctx context.Context, email string) error
	// AlreadyContacted reports whether any row with the email address
	// is flagged contacted. When rows disagree it consolidates them,
	// flagging the stragglers, and reports true.
	AlreadyContacted(ctx context.Context, email string) (bool, error)
	// Refresh drops any cached table state so the next read hits the
	// backing sheet.
	Refresh()
	// Append adds new contact rows to the sheet.
	Append(ctx context.Context, contacts []model.Contact) error
}
