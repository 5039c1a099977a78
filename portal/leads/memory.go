package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
)

// memory is an in-memory database for testing, and local development
type memory struct {
	mtx   sync.RWMutex
	leads []Lead
}

func newMemory() *memory {
	return &memory{}
}

func (db *memory) InsertLead(ctx context.Context, lead *Lead) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	lead.ID = uuid.NewV4().String()
	lead.CreatedAt = time.Now().UTC()
	db.leads = append(db.leads, *lead)
	return nil
}

func (db *memory) ListLeads(ctx context.Context, page int) ([]*Lead, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()

	all := make([]*Lead, 0, len(db.leads))
	for i := range db.leads {
		l := db.leads[i]
		all = append(all, &l)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	start := int(offset(page))
	if start >= len(all) {
		return []*Lead{}, nil
	}
	end := start + PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (db *memory) Transaction(f func(DB) error) error {
	return f(db)
}

func (db *memory) Close(ctx context.Context) error {
	return nil
}
