package position

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu   sync.Mutex
	rows []Row
}

func (f *fakeStore) Snapshot() []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows
}

type fakeBroadcast struct {
	mu   sync.Mutex
	subs []chan []Row
}

func (f *fakeBroadcast) Subscribe() <-chan []Row {
	ch := make(chan []Row, 1)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch
}

func (f *fakeBroadcast) publish(rows []Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- rows
	}
}

func TestGetPositionsReturnsStoreWhenNonEmpty(t *testing.T) {
	store := &fakeStore{rows: []Row{{OrderID: "a", Qty: 1}}}
	req := make(chan struct{}, 1)
	rows, err := GetPositions(context.Background(), store, req, &fakeBroadcast{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Len(t, req, 0, "should not have sent a REST fetch request")
}

func TestGetPositionsFallsBackToRESTWhenEmpty(t *testing.T) {
	store := &fakeStore{}
	req := make(chan struct{}, 1)
	bcast := &fakeBroadcast{}

	go func() {
		<-req
		time.Sleep(10 * time.Millisecond)
		bcast.publish([]Row{{OrderID: "x", Qty: 2, Price: 50}})
	}()

	rows, err := GetPositions(context.Background(), store, req, bcast)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].OrderID)
}

func TestGetPositionsRespectsContextCancellation(t *testing.T) {
	store := &fakeStore{}
	req := make(chan struct{}) // unbuffered, never drained
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GetPositions(ctx, store, req, &fakeBroadcast{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregateSumsQtyAndPrice(t *testing.T) {
	rows := []Row{
		{OrderID: "a", Qty: 1, Price: 100},
		{OrderID: "b", Qty: 5, Price: 999},
		{OrderID: "a", Qty: 2, Price: 50},
	}
	agg := Aggregate("a", rows)
	assert.Equal(t, 3.0, agg.Qty)
	assert.Equal(t, 150.0, agg.Price)
}

func TestAggregateNoMatches(t *testing.T) {
	agg := Aggregate("missing", []Row{{OrderID: "a", Qty: 1, Price: 1}})
	assert.Equal(t, Aggregated{}, agg)
}
