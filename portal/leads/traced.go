package leads

import (
	"context"

	"github.com/sirupsen/logrus"
)

// traced adds logrus trace lines on each db call
type traced struct {
	d DB
}

func (t traced) trace(name string, args ...interface{}) {
	logrus.Debugf("%s: %#v", name, args)
}

func (t traced) InsertLead(ctx context.Context, lead *Lead) (err error) {
	// Contact details stay out of the logs.
	defer func() { t.trace("InsertLead", lead.ID, err) }()
	return t.d.InsertLead(ctx, lead)
}

func (t traced) ListLeads(ctx context.Context, page int) (leads []*Lead, err error) {
	defer func() { t.trace("ListLeads", page, len(leads), err) }()
	return t.d.ListLeads(ctx, page)
}

func (t traced) Transaction(f func(DB) error) (err error) {
	defer func() { t.trace("Transaction", err) }()
	return t.d.Transaction(func(inner DB) error {
		return f(traced{inner})
	})
}

func (t traced) Close(ctx context.Context) (err error) {
	defer func() { t.trace("Close", err) }()
	return t.d.Close(ctx)
}
