package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/printshop-manager/internal/models"
)

// ErrRowNotFound is returned when an UPDATE or DELETE target id is missing.
var ErrRowNotFound = errors.New("row not found")

// Table defines data access for one sheet of the tabular backing store.
type Table[T any] interface {
	// List returns every row in append order
	List(ctx context.Context) ([]T, error)

	// Append adds a row at the end of the sheet
	Append(ctx context.Context, row *T) error

	// Replace overwrites the full row whose id matches
	Replace(ctx context.Context, id string, row *T) error

	// Delete removes the row whose id matches
	Delete(ctx context.Context, id string) error
}

// Store groups the three sheets of the spreadsheet.
type Store struct {
	Users  Table[models.User]
	Orders Table[models.Order]
	Tasks  Table[models.Task]
}
