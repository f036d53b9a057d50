package schema

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/notify"
	"github.com/leapstack-labs/dbassist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu      sync.Mutex
	listing []api.TableColumns
	err     error
	calls   int
}

func (f *stubFetcher) Schema(context.Context) ([]api.TableColumns, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.listing, nil
}

func TestSchema_Lookup(t *testing.T) {
	s := New([]api.TableColumns{
		{Name: "orders", Columns: []string{"order_id", "customer_name", "quantity"}},
		{Name: "customers", Columns: []string{"customer_id", "email"}},
	})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"orders", "customers"}, s.Tables())
	assert.True(t, s.Has("orders"))

	cols, err := s.Columns("orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "customer_name", "quantity"}, cols)

	_, err = s.Columns("nope")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestSchema_IsolatedFromCallers(t *testing.T) {
	listing := []api.TableColumns{{Name: "orders", Columns: []string{"order_id"}}}
	s := New(listing)
	listing[0].Columns[0] = "mutated"

	cols, _ := s.Columns("orders")
	assert.Equal(t, []string{"order_id"}, cols)

	cols[0] = "mutated again"
	cols, _ = s.Columns("orders")
	assert.Equal(t, []string{"order_id"}, cols)
}

func TestSchema_Nil(t *testing.T) {
	var s *Schema
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Tables())
	_, err := s.Columns("orders")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestCatalog_LoadReplacesWholesale(t *testing.T) {
	f := &stubFetcher{listing: []api.TableColumns{{Name: "orders", Columns: []string{"order_id"}}}}
	c := NewCatalog(f, nil, testutil.NewTestLogger(t))

	assert.False(t, c.Loaded())
	assert.Nil(t, c.Tables())

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, c.Tables())

	f.listing = []api.TableColumns{{Name: "products", Columns: []string{"product_id", "price"}}}
	_, err = c.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"products"}, c.Tables())
	_, err = c.ColumnsOf("orders")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestCatalog_FailedLoadKeepsStaleSchema(t *testing.T) {
	f := &stubFetcher{listing: []api.TableColumns{{Name: "orders", Columns: []string{"order_id"}}}}
	slot := notify.New()
	c := NewCatalog(f, slot, testutil.NewTestLogger(t))

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	_, visible := slot.Current()
	assert.False(t, visible)

	f.err = &api.Error{Kind: api.ErrFetch, StatusCode: http.StatusServiceUnavailable}
	_, err = c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrFetch))

	assert.Equal(t, []string{"orders"}, c.Tables())
	n, visible := slot.Current()
	require.True(t, visible)
	assert.Equal(t, notify.Notification{Kind: notify.Error, Text: FetchErrorText}, n)
}

type blockingFetcher struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	listing []api.TableColumns
}

func (f *blockingFetcher) Schema(ctx context.Context) ([]api.TableColumns, error) {
	f.once.Do(func() { close(f.started) })
	select {
	case <-f.release:
		return f.listing, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCatalog_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	f := &blockingFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		listing: []api.TableColumns{{Name: "orders", Columns: []string{"order_id"}}},
	}
	slot := notify.New()
	c := NewCatalog(f, slot, testutil.NewTestLogger(t))

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Load(firstCtx)
		firstErr <- err
	}()
	<-f.started

	type result struct {
		s   *Schema
		err error
	}
	second := make(chan result, 1)
	go func() {
		s, err := c.Load(context.Background())
		second <- result{s, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(f.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []string{"orders"}, got.s.Tables())
	assert.True(t, c.Loaded())
	_, shown := slot.Current()
	assert.False(t, shown, "no fetch error is published")
}

func TestDetach_KeepsDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	want, _ := parent.Deadline()

	ctx, stop := detach(parent)
	defer stop()
	cancel()

	require.NoError(t, ctx.Err())
	got, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCatalog_AgainstFakeAPI(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(`{"tables":{"orders":["order_id","customer_name","quantity"]}}`)
	client, err := api.New(api.Options{BaseURL: fake.URL})
	require.NoError(t, err)

	c := NewCatalog(client, notify.New(), testutil.NewTestLogger(t))
	s, err := c.Load(context.Background())
	require.NoError(t, err)

	cols, err := s.Columns("orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "customer_name", "quantity"}, cols)
	assert.Same(t, s, c.Current())
}
