package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gocolly/colly"

	"github.com/cardwatch/cardwatch/internal/metrics"
	domain "github.com/cardwatch/cardwatch/pkg/types"
)

// ListingPageFetcher scrapes WooCommerce-style category pages: a single
// page of li.product cards with no SKU, keyed by the listing URL.
//
// WooCommerce themes rarely publish an exact quantity. The adapter maps
// what the page does expose onto a stock count: an explicit "N in stock"
// badge is used verbatim, a card marked outofstock is 0, and any other
// visible card is 1: displayed means purchasable, which is the floor
// the classifier needs to tell "listed" from "out of stock".
type ListingPageFetcher struct {
	pageURL   string
	userAgent string
	log       *slog.Logger
}

// ListingOption configures a ListingPageFetcher.
type ListingOption func(*ListingPageFetcher)

// WithListingUserAgent overrides the request User-Agent.
func WithListingUserAgent(ua string) ListingOption {
	return func(f *ListingPageFetcher) {
		f.userAgent = ua
	}
}

// WithListingLogger sets the logger.
func WithListingLogger(l *slog.Logger) ListingOption {
	return func(f *ListingPageFetcher) {
		f.log = l
	}
}

// NewListingPageFetcher creates a fetcher for a single category page.
func NewListingPageFetcher(pageURL string, opts ...ListingOption) *ListingPageFetcher {
	f := &ListingPageFetcher{
		pageURL:   pageURL,
		userAgent: defaultUserAgent,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll scrapes the category page once.
func (f *ListingPageFetcher) FetchAll(_ context.Context) ([]domain.Product, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.IgnoreRobotsTxt(),
	)

	var products []domain.Product
	c.OnHTML("li.product", func(e *colly.HTMLElement) {
		if p, ok := f.parseItem(e); ok {
			products = append(products, p)
		}
	})

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(f.pageURL); err != nil {
		return nil, fmt.Errorf("fetching listing page: %w", err)
	}
	if visitErr != nil {
		return nil, fmt.Errorf("fetching listing page: %w", visitErr)
	}

	metrics.FetchPagesTotal.Inc()
	f.log.Debug("listing page fetched", "products", len(products))

	return products, nil
}

func (f *ListingPageFetcher) parseItem(e *colly.HTMLElement) (domain.Product, bool) {
	title := strings.TrimSpace(e.ChildText("h2.woocommerce-loop-product__title"))
	href := e.ChildAttr("a.woocommerce-LoopProduct-link", "href")
	if title == "" || href == "" {
		return domain.Product{}, false
	}

	url := e.Request.AbsoluteURL(href)

	var image string
	if src := e.ChildAttr("img", "src"); src != "" {
		image = e.Request.AbsoluteURL(src)
	}

	return domain.Product{
		Key:      url, // WooCommerce loops expose no SKU
		Title:    title,
		URL:      url,
		Image:    image,
		Price:    strings.TrimSpace(e.ChildText("span.price")),
		StockQty: listingStock(e),
	}, true
}

func listingStock(e *colly.HTMLElement) int {
	if strings.Contains(e.Attr("class"), "outofstock") {
		return 0
	}

	// Some themes render "12 in stock" on the loop card.
	badge := strings.TrimSpace(e.ChildText("p.stock"))
	if qty, ok := leadingInt(badge); ok {
		return qty
	}

	return 1
}

func leadingInt(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	qty, err := strconv.Atoi(fields[0])
	if err != nil || qty < 0 {
		return 0, false
	}
	return qty, true
}
