package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/objexa/service/common/dbconfig"
)

// PageSize is the number of leads ListLeads returns per page.
const PageSize = 50

// Lead is a demo booking request. It never changes once stored.
type Lead struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PracticeName string    `json:"practice_name" db:"practice_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DB is the interface for the lead store.
type DB interface {
	// InsertLead stores lead, filling in its ID and CreatedAt.
	InsertLead(ctx context.Context, lead *Lead) error
	// ListLeads returns a page of leads, newest first. Pages start at 1.
	ListLeads(ctx context.Context, page int) ([]*Lead, error)

	// Transaction runs the given function in a transaction. If fn returns
	// an error the txn will be rolled back.
	Transaction(f func(DB) error) error

	Close(ctx context.Context) error
}

// New creates a new database from the URI
func New(cfg dbconfig.Config) (DB, error) {
	scheme, dataSourceName, migrationsDir, err := cfg.Parameters()
	if err != nil {
		return nil, err
	}
	var d DB
	switch scheme {
	case "memory":
		d = newMemory()
	case "postgres":
		d, err = newPostgres(dataSourceName, migrationsDir)
	case "http", "https":
		d, err = newREST(dataSourceName)
	default:
		return nil, fmt.Errorf("Unknown database type: %s", scheme)
	}
	if err != nil {
		return nil, err
	}
	return traced{timed{d}}, nil
}

func offset(page int) uint64 {
	if page < 1 {
		page = 1
	}
	return uint64((page - 1) * PageSize)
}
