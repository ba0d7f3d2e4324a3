package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gocolly/colly"
	"golang.org/x/time/rate"

	"github.com/cardwatch/cardwatch/internal/metrics"
	domain "github.com/cardwatch/cardwatch/pkg/types"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultMaxPages  = 50
)

// ShopfrontFetcher scrapes nopCommerce-style shopfronts: a paginated
// product grid (?pagenumber=N) of div.item-box cards carrying an
// explicit SKU and stock quantity. Pagination stops at the first empty
// page or at the page cap.
type ShopfrontFetcher struct {
	baseURL   string
	userAgent string
	maxPages  int
	limiter   *rate.Limiter
	log       *slog.Logger
}

// ShopfrontOption configures a ShopfrontFetcher.
type ShopfrontOption func(*ShopfrontFetcher)

// WithUserAgent overrides the request User-Agent.
func WithUserAgent(ua string) ShopfrontOption {
	return func(f *ShopfrontFetcher) {
		f.userAgent = ua
	}
}

// WithMaxPages caps pagination.
func WithMaxPages(n int) ShopfrontOption {
	return func(f *ShopfrontFetcher) {
		f.maxPages = n
	}
}

// WithRateLimit throttles page requests against the shop host.
func WithRateLimit(perSecond float64, burst int) ShopfrontOption {
	return func(f *ShopfrontFetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithShopfrontLogger sets the logger.
func WithShopfrontLogger(l *slog.Logger) ShopfrontOption {
	return func(f *ShopfrontFetcher) {
		f.log = l
	}
}

// NewShopfrontFetcher creates a fetcher for the catalog rooted at baseURL.
func NewShopfrontFetcher(baseURL string, opts ...ShopfrontOption) *ShopfrontFetcher {
	f := &ShopfrontFetcher{
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
		maxPages:  defaultMaxPages,
		limiter:   rate.NewLimiter(rate.Limit(2.0), 1),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll walks the catalog page by page until a page yields no
// products. A failure on the first page is a retrieval failure; a
// failure mid-pagination stops the walk and returns what was collected,
// so one flaky deep page does not discard the whole fetch.
func (f *ShopfrontFetcher) FetchAll(ctx context.Context) ([]domain.Product, error) {
	var all []domain.Product

	for page := 1; page <= f.maxPages; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		products, err := f.fetchPage(page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("fetching page %d: %w", page, err)
			}
			f.log.Warn("page fetch failed, stopping pagination",
				"page", page, "error", err)
			break
		}

		if len(products) == 0 {
			break
		}

		metrics.FetchPagesTotal.Inc()
		f.log.Debug("page fetched", "page", page, "products", len(products))
		all = append(all, products...)
	}

	return all, nil
}

func (f *ShopfrontFetcher) fetchPage(page int) ([]domain.Product, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.IgnoreRobotsTxt(),
	)

	var products []domain.Product
	c.OnHTML("div.item-box", func(e *colly.HTMLElement) {
		if p, ok := f.parseItem(e); ok {
			products = append(products, p)
		}
	})

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	url := fmt.Sprintf("%s?pagenumber=%d&orderby=15", f.baseURL, page)
	if err := c.Visit(url); err != nil {
		return nil, err
	}
	if visitErr != nil {
		return nil, visitErr
	}

	return products, nil
}

func (f *ShopfrontFetcher) parseItem(e *colly.HTMLElement) (domain.Product, bool) {
	title := strings.TrimSpace(e.ChildText("h2.product-title a"))
	href := e.ChildAttr("h2.product-title a", "href")
	if title == "" || href == "" {
		return domain.Product{}, false
	}

	url := e.Request.AbsoluteURL(href)

	sku := labeledValue(e.DOM, "SKU:")
	key := sku
	if key == "" {
		key = url
	}

	var image string
	if src := e.ChildAttr("img", "src"); src != "" {
		image = e.Request.AbsoluteURL(src)
	}

	return domain.Product{
		Key:      key,
		Title:    title,
		URL:      url,
		Image:    image,
		Price:    strings.TrimSpace(e.ChildText("span.price")),
		StockQty: parseStock(labeledValue(e.DOM, "Stock Qty:")),
	}, true
}
