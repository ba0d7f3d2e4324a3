// Package domain defines the core business types for cardwatch.
package domain

// Category classifies a stock change between two catalog observations.
type Category string

// Change categories, in notification priority order.
const (
	CategoryRestocked Category = "restocked"
	CategoryIncreased Category = "increased"
	CategoryAdded     Category = "added"
)

// Product represents one catalog listing at a point in time.
//
// Key is the stable diffing identifier: the shop SKU when the catalog
// exposes one, otherwise the listing's canonical URL. Records with an
// empty Key never participate in change detection.
type Product struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Image    string `json:"image,omitempty"`
	Price    string `json:"price,omitempty"`
	StockQty int    `json:"stock_qty"`
}

// Snapshot maps product keys to the most recently observed record for
// that key. It is the only durable state in the system: created empty,
// replaced wholesale each cycle, never patched incrementally.
type Snapshot map[string]Product

// ChangeEvent is a single classified stock transition. Events are
// ephemeral: produced and consumed within one cycle, never persisted.
//
// OldStock is set for CategoryRestocked and CategoryIncreased, where the
// prior observation is part of the alert, and nil for CategoryAdded.
type ChangeEvent struct {
	Category Category
	Key      string
	Title    string
	URL      string
	Image    string
	Price    string
	OldStock *int
	NewStock int
}

// Index builds a Snapshot from a product list. Later occurrences of a
// key win, and products with an empty key are dropped.
func Index(products []Product) Snapshot {
	snap := make(Snapshot, len(products))
	for _, p := range products {
		if p.Key == "" {
			continue
		}
		snap[p.Key] = p
	}
	return snap
}
