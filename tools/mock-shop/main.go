// Package main implements a mock shopfront for local development. It
// serves a paginated product grid in the markup cardwatch's shopfront
// adapter scrapes, with an admin endpoint to mutate stock levels so
// restock and increase alerts can be exercised without a real shop.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

type product struct {
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Price    string `json:"price"`
	StockQty int    `json:"stock_qty"`
}

type shop struct {
	mu       sync.Mutex
	products []product
	pageSize int
	log      *slog.Logger
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><body>
<div class="product-grid">
{{range .}}  <div class="item-box">
    <h2 class="product-title"><a href="/{{.Slug}}">{{.Title}}</a></h2>
    <div class="sku"><strong>SKU:</strong> {{.SKU}}</div>
    <div class="stock"><strong>Stock Qty:</strong> {{.StockQty}}</div>
    <span class="price">{{.Price}}</span>
    <img src="/images/{{.SKU}}.jpg" alt="">
  </div>
{{end}}</div>
</body></html>
`))

func main() {
	port := flag.Int("port", 8090, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-shop/testdata/products.json", "path to product fixture")
	pageSize := flag.Int("page-size", 2, "products per catalog page")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	products, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "products", len(products))

	s := &shop{products: products, pageSize: *pageSize, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /catalog", s.catalogHandler)
	mux.HandleFunc("POST /admin/stock", s.stockHandler)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock shop", "addr", addr, "catalog", fmt.Sprintf("http://localhost%s/catalog", addr))

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) ([]product, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var products []product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return products, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// catalogHandler renders one page of the product grid. Pages beyond the
// catalog render an empty grid, which is how the scraper detects the end
// of pagination.
func (s *shop) catalogHandler(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("pagenumber"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := (page - 1) * s.pageSize
	end := min(start+s.pageSize, len(s.products))

	var pageProducts []product
	if start < len(s.products) {
		pageProducts = s.products[start:end]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, pageProducts); err != nil {
		s.log.Error("rendering page", "error", err)
	}
}

// stockHandler mutates one product's stock: POST /admin/stock?sku=OP-01&qty=5.
func (s *shop) stockHandler(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("sku")
	qty, err := strconv.Atoi(r.URL.Query().Get("qty"))
	if sku == "" || err != nil || qty < 0 {
		http.Error(w, "sku and non-negative qty required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].SKU != sku {
			continue
		}
		old := s.products[i].StockQty
		s.products[i].StockQty = qty
		s.log.Info("stock updated", "sku", sku, "old", old, "new", qty)
		fmt.Fprintf(w, "%s: %d -> %d\n", sku, old, qty)
		return
	}

	http.Error(w, "unknown sku", http.StatusNotFound)
}
