package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/cardwatch/cardwatch/pkg/types"
)

var batchNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func addedEvents(n int) []domain.ChangeEvent {
	events := make([]domain.ChangeEvent, 0, n)
	for i := range n {
		events = append(events, domain.ChangeEvent{
			Category: domain.CategoryAdded,
			Key:      fmt.Sprintf("OP-%02d", i+1),
			Title:    fmt.Sprintf("Booster Box %d", i+1),
			NewStock: i + 1,
		})
	}
	return events
}

func TestBatch_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Batch(nil, DefaultCategoryMeta(), 10, batchNow))
}

func TestBatch_SingleCategoryUnderCap(t *testing.T) {
	t.Parallel()

	msgs := Batch(addedEvents(3), DefaultCategoryMeta(), 10, batchNow)
	require.Len(t, msgs, 1)

	msg := msgs[0]
	assert.Equal(t, "New Products Added", msg.Title)
	assert.Equal(t, "3 new product(s) available!", msg.Description)
	assert.Equal(t, 15844367, msg.Color)
	assert.Equal(t, batchNow, msg.Timestamp)
	assert.Equal(t, "cardwatch monitor", msg.Footer)
	require.Len(t, msg.Details, 3)
	assert.Equal(t, "Booster Box 1", msg.Details[0].Title)
	assert.Nil(t, msg.Details[0].OldStock)
}

func TestBatch_OverCapPaginatesSameCategory(t *testing.T) {
	t.Parallel()

	// 11 events with cap 10 must yield 2 messages: 10 details, then 1.
	msgs := Batch(addedEvents(11), DefaultCategoryMeta(), 10, batchNow)
	require.Len(t, msgs, 2)

	assert.Equal(t, "New Products Added", msgs[0].Title)
	assert.Equal(t, "New Products Added", msgs[1].Title)
	assert.Len(t, msgs[0].Details, 10)
	assert.Len(t, msgs[1].Details, 1)

	// No event dropped, order preserved across the page break.
	assert.Equal(t, "Booster Box 10", msgs[0].Details[9].Title)
	assert.Equal(t, "Booster Box 11", msgs[1].Details[0].Title)
	assert.Contains(t, msgs[1].Description, "continued")
}

func TestBatch_ExactCapIsOneMessage(t *testing.T) {
	t.Parallel()

	msgs := Batch(addedEvents(10), DefaultCategoryMeta(), 10, batchNow)
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Details, 10)
}

func TestBatch_CategoryPriorityOrder(t *testing.T) {
	t.Parallel()

	events := []domain.ChangeEvent{
		{Category: domain.CategoryAdded, Key: "a1", NewStock: 1},
		{Category: domain.CategoryIncreased, Key: "i1", OldStock: intPtr(2), NewStock: 5},
		{Category: domain.CategoryRestocked, Key: "r1", OldStock: intPtr(0), NewStock: 3},
		{Category: domain.CategoryAdded, Key: "a2", NewStock: 4},
	}

	msgs := Batch(events, DefaultCategoryMeta(), 10, batchNow)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Restock Alert", msgs[0].Title)
	assert.Equal(t, "Stock Increased", msgs[1].Title)
	assert.Equal(t, "New Products Added", msgs[2].Title)

	// Classifier order within a category.
	require.Len(t, msgs[2].Details, 2)
	assert.Equal(t, 1, msgs[2].Details[0].Stock)
	assert.Equal(t, 4, msgs[2].Details[1].Stock)
}

func TestBatch_DeltaCarriedOnDetails(t *testing.T) {
	t.Parallel()

	events := []domain.ChangeEvent{
		{
			Category: domain.CategoryRestocked,
			Key:      "OP-01",
			Title:    "Romance Dawn",
			URL:      "https://shop.example/op-01",
			Image:    "https://shop.example/op-01.jpg",
			Price:    "£89.99",
			OldStock: intPtr(0),
			NewStock: 5,
		},
	}

	msgs := Batch(events, DefaultCategoryMeta(), 10, batchNow)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Details, 1)

	det := msgs[0].Details[0]
	assert.Equal(t, "Romance Dawn", det.Title)
	assert.Equal(t, "https://shop.example/op-01", det.URL)
	assert.Equal(t, "https://shop.example/op-01.jpg", det.Thumbnail)
	assert.Equal(t, "£89.99", det.Price)
	assert.Equal(t, 5, det.Stock)
	require.NotNil(t, det.OldStock)
	assert.Equal(t, 0, *det.OldStock)
}

func TestBatch_ZeroCapFallsBackToDefault(t *testing.T) {
	t.Parallel()

	msgs := Batch(addedEvents(DefaultEmbedCap+1), DefaultCategoryMeta(), 0, batchNow)
	require.Len(t, msgs, 2)
	assert.Len(t, msgs[0].Details, DefaultEmbedCap)
}
