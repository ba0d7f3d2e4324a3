package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/cardwatch/cardwatch/pkg/types"
)

func intPtr(v int) *int { return &v }

func prior(products ...domain.Product) domain.Snapshot {
	return domain.Index(products)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prev    domain.Snapshot
		current []domain.Product
		want    []domain.ChangeEvent
	}{
		{
			name: "restock emits exactly one event with old stock",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 0}),
			current: []domain.Product{
				{Key: "OP-01", Title: "Romance Dawn", StockQty: 5},
			},
			want: []domain.ChangeEvent{
				{Category: domain.CategoryRestocked, Key: "OP-01", Title: "Romance Dawn", OldStock: intPtr(0), NewStock: 5},
			},
		},
		{
			name: "increase emits exactly one event with old stock",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 3}),
			current: []domain.Product{
				{Key: "OP-01", Title: "Romance Dawn", StockQty: 7},
			},
			want: []domain.ChangeEvent{
				{Category: domain.CategoryIncreased, Key: "OP-01", Title: "Romance Dawn", OldStock: intPtr(3), NewStock: 7},
			},
		},
		{
			name: "decrease is silent",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 7}),
			current: []domain.Product{
				{Key: "OP-01", StockQty: 3},
			},
			want: nil,
		},
		{
			name: "unchanged stock is silent",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 4}),
			current: []domain.Product{
				{Key: "OP-01", StockQty: 4},
			},
			want: nil,
		},
		{
			name: "sellout is silent",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 4}),
			current: []domain.Product{
				{Key: "OP-01", StockQty: 0},
			},
			want: nil,
		},
		{
			name: "both zero is silent",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 0}),
			current: []domain.Product{
				{Key: "OP-01", StockQty: 0},
			},
			want: nil,
		},
		{
			name: "new key with stock emits added without old stock",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 2}),
			current: []domain.Product{
				{Key: "OP-01", StockQty: 2},
				{Key: "OP-02", Title: "Paramount War", StockQty: 6},
			},
			want: []domain.ChangeEvent{
				{Category: domain.CategoryAdded, Key: "OP-02", Title: "Paramount War", NewStock: 6},
			},
		},
		{
			name: "new key at zero stock is suppressed",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 2}),
			current: []domain.Product{
				{Key: "OP-01", StockQty: 2},
				{Key: "OP-02", StockQty: 0},
			},
			want: nil,
		},
		{
			name: "disappeared key produces no event",
			prev: prior(
				domain.Product{Key: "OP-01", StockQty: 2},
				domain.Product{Key: "OP-99", StockQty: 9},
			),
			current: []domain.Product{
				{Key: "OP-01", StockQty: 2},
			},
			want: nil,
		},
		{
			name: "empty key is ignored",
			prev: domain.Snapshot{},
			current: []domain.Product{
				{Key: "", Title: "No key", StockQty: 12},
			},
			want: nil,
		},
		{
			name: "duplicate key last occurrence wins",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 0}),
			current: []domain.Product{
				{Key: "OP-01", Title: "stale row", StockQty: 3},
				{Key: "OP-01", Title: "fresh row", StockQty: 0},
			},
			want: nil,
		},
		{
			name: "duplicate key last occurrence wins and alerts",
			prev: prior(domain.Product{Key: "OP-01", StockQty: 0}),
			current: []domain.Product{
				{Key: "OP-01", Title: "stale row", StockQty: 0},
				{Key: "OP-01", Title: "fresh row", StockQty: 8},
			},
			want: []domain.ChangeEvent{
				{Category: domain.CategoryRestocked, Key: "OP-01", Title: "fresh row", OldStock: intPtr(0), NewStock: 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.prev, tt.current)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_AtMostOneEventPerKey(t *testing.T) {
	t.Parallel()

	prev := prior(
		domain.Product{Key: "OP-01", StockQty: 0},
		domain.Product{Key: "OP-02", StockQty: 1},
		domain.Product{Key: "OP-03", StockQty: 5},
	)
	current := []domain.Product{
		{Key: "OP-01", StockQty: 10}, // restock
		{Key: "OP-02", StockQty: 4},  // increase
		{Key: "OP-03", StockQty: 5},  // unchanged
		{Key: "OP-04", StockQty: 2},  // added
	}

	events := Classify(prev, current)
	require.Len(t, events, 3)

	seen := make(map[string]int)
	for _, ev := range events {
		seen[ev.Key]++
	}
	for key, count := range seen {
		assert.Equal(t, 1, count, "key %s produced %d events", key, count)
	}
}

func TestClassify_PreservesFetchOrder(t *testing.T) {
	t.Parallel()

	current := []domain.Product{
		{Key: "OP-03", StockQty: 1},
		{Key: "OP-01", StockQty: 1},
		{Key: "OP-02", StockQty: 1},
	}

	events := Classify(prior(), current)
	require.Len(t, events, 3)
	assert.Equal(t, "OP-03", events[0].Key)
	assert.Equal(t, "OP-01", events[1].Key)
	assert.Equal(t, "OP-02", events[2].Key)
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	prev := prior(
		domain.Product{Key: "OP-01", StockQty: 0},
		domain.Product{Key: "OP-02", StockQty: 3},
	)
	current := []domain.Product{
		{Key: "OP-01", StockQty: 2},
		{Key: "OP-02", StockQty: 9},
		{Key: "OP-05", StockQty: 1},
	}

	first := Classify(prev, current)
	for range 10 {
		assert.Equal(t, first, Classify(prev, current))
	}
}
