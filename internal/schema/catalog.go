package schema

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/notify"
	"golang.org/x/sync/singleflight"
)

// FetchErrorText is published when a load fails.
const FetchErrorText = "Error fetching schema"

// Fetcher retrieves the table listing; *api.Client implements it.
type Fetcher interface {
	Schema(ctx context.Context) ([]api.TableColumns, error)
}

// Catalog caches the most recently fetched Schema.
//
// Readers never see a partially updated schema: a successful Load swaps the
// whole value, and a failed Load leaves the previous one in place.
type Catalog struct {
	fetcher Fetcher
	slot    *notify.Slot
	logger  *slog.Logger
	current atomic.Pointer[Schema]
	loads   singleflight.Group
}

// NewCatalog creates an empty catalog. Load errors are published to slot
// when it is non-nil.
func NewCatalog(fetcher Fetcher, slot *notify.Slot, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		fetcher: fetcher,
		slot:    slot,
		logger:  logger,
	}
}

// Load fetches the schema and replaces the cached one. Concurrent calls
// share a single request, which runs detached from any one caller's
// cancellation but keeps the first caller's deadline. A caller whose ctx
// ends first gets ctx.Err() while the shared fetch carries on.
func (c *Catalog) Load(ctx context.Context) (*Schema, error) {
	ch := c.loads.DoChan("schema", func() (any, error) {
		fetchCtx, cancel := detach(ctx)
		defer cancel()

		listing, err := c.fetcher.Schema(fetchCtx)
		if err != nil {
			return nil, err
		}
		s := New(listing)
		c.current.Store(s)
		return s, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		c.logger.Debug("schema load abandoned", "error", ctx.Err())
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		c.logger.Info("schema load failed", "error", res.Err, "stale", c.current.Load() != nil)
		if c.slot != nil {
			c.slot.Error(FetchErrorText)
		}
		return nil, res.Err
	}

	s := res.Val.(*Schema)
	c.logger.Debug("schema loaded", "tables", s.Len(), "shared", res.Shared)
	return s, nil
}

// detach drops ctx's cancellation but keeps its values and deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithCancel(base)
}

// Current returns the cached schema, or nil before the first successful load.
func (c *Catalog) Current() *Schema {
	return c.current.Load()
}

// Loaded reports whether a schema is available.
func (c *Catalog) Loaded() bool {
	return c.current.Load() != nil
}

// Tables returns the cached table names.
func (c *Catalog) Tables() []string {
	return c.current.Load().Tables()
}

// ColumnsOf returns the columns of a cached table, or ErrUnknownTable.
func (c *Catalog) ColumnsOf(table string) ([]string, error) {
	return c.current.Load().Columns(table)
}
