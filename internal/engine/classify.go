package engine

import (
	domain "github.com/cardwatch/cardwatch/pkg/types"
)

// Classify compares the current fetch against the previous snapshot and
// returns the stock transitions, in the order the products were fetched.
//
// Per key, at most one event is produced:
//   - unseen key with stock > 0            -> Added
//   - previously 0, now > 0                -> Restocked (old stock attached)
//   - previously > 0, now strictly higher  -> Increased (old stock attached)
//
// Everything else is silent: unseen keys still at zero stock (listings
// that exist before they are purchasable), decreases, unchanged stock,
// and keys that disappeared from the catalog. Products with an empty key
// are ignored. When the same key occurs more than once in current, the
// last occurrence wins.
//
// Classify itself has no first-run policy; the caller decides whether a
// cycle is baseline-seeding (see Engine.RunCycle).
func Classify(prev domain.Snapshot, current []domain.Product) []domain.ChangeEvent {
	lastIdx := make(map[string]int, len(current))
	for i, p := range current {
		if p.Key == "" {
			continue
		}
		lastIdx[p.Key] = i
	}

	var events []domain.ChangeEvent

	for i, p := range current {
		if p.Key == "" || lastIdx[p.Key] != i {
			continue
		}

		old, seen := prev[p.Key]
		if !seen {
			if p.StockQty > 0 {
				events = append(events, newEvent(domain.CategoryAdded, p, nil))
			}
			continue
		}

		oldStock := old.StockQty
		switch {
		case oldStock == 0 && p.StockQty > 0:
			events = append(events, newEvent(domain.CategoryRestocked, p, &oldStock))
		case oldStock > 0 && p.StockQty > oldStock:
			events = append(events, newEvent(domain.CategoryIncreased, p, &oldStock))
		}
	}

	return events
}

func newEvent(cat domain.Category, p domain.Product, oldStock *int) domain.ChangeEvent {
	return domain.ChangeEvent{
		Category: cat,
		Key:      p.Key,
		Title:    p.Title,
		URL:      p.URL,
		Image:    p.Image,
		Price:    p.Price,
		OldStock: oldStock,
		NewStock: p.StockQty,
	}
}
