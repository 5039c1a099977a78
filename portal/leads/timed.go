package leads

import (
	"context"

	"github.com/weaveworks/common/instrument"

	"github.com/objexa/service/common"
)

// timed adds prometheus timings to another database implementation
type timed struct {
	d DB
}

func (t timed) timeRequest(ctx context.Context, method string, f func(context.Context) error) error {
	return instrument.CollectedRequest(ctx, method, common.DatabaseRequestDuration, nil, f)
}

func (t timed) InsertLead(ctx context.Context, lead *Lead) error {
	return t.timeRequest(ctx, "InsertLead", func(ctx context.Context) error {
		return t.d.InsertLead(ctx, lead)
	})
}

func (t timed) ListLeads(ctx context.Context, page int) (leads []*Lead, err error) {
	t.timeRequest(ctx, "ListLeads", func(ctx context.Context) error {
		leads, err = t.d.ListLeads(ctx, page)
		return err
	})
	return
}

func (t timed) Transaction(f func(DB) error) error {
	return t.d.Transaction(func(inner DB) error {
		return f(timed{inner})
	})
}

func (t timed) Close(ctx context.Context) error {
	return t.timeRequest(ctx, "Close", func(ctx context.Context) error {
		return t.d.Close(ctx)
	})
}
