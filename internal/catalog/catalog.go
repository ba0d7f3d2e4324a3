// Package catalog fetches the current product set from a monitored shop.
// It is the retrieval collaborator of the change-detection engine: each
// adapter exhausts the catalog (all pages) and returns normalized product
// records. Absent or unparseable fields are normalized here, never inside
// the classifier.
package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	domain "github.com/cardwatch/cardwatch/pkg/types"
)

// Fetcher retrieves the full current catalog, in page order.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.Product, error)
}

// labeledValue returns the text node immediately following a
// <strong>label</strong> element, e.g. "OP-01" from
// "<strong>SKU:</strong> OP-01". Returns "" when the label is absent.
func labeledValue(dom *goquery.Selection, label string) string {
	var val string
	dom.Find("strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != label {
			return true
		}
		if n := s.Get(0).NextSibling; n != nil && n.Type == html.TextNode {
			val = strings.TrimSpace(n.Data)
		}
		return false
	})
	return val
}

// parseStock normalizes a scraped stock string to a non-negative count.
// Anything non-numeric is 0.
func parseStock(raw string) int {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty < 0 {
		return 0
	}
	return qty
}
