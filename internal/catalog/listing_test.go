package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<ul class="products">
  <li class="product type-product instock">
    <a class="woocommerce-LoopProduct-link" href="/product/romance-dawn/">
      <img src="/wp-content/uploads/op-01.jpg" alt="">
      <h2 class="woocommerce-loop-product__title">Romance Dawn Booster Box</h2>
      <span class="price">£89.99</span>
    </a>
  </li>
  <li class="product type-product instock">
    <a class="woocommerce-LoopProduct-link" href="/product/paramount-war/">
      <h2 class="woocommerce-loop-product__title">Paramount War Booster Box</h2>
      <span class="price">£74.99</span>
    </a>
    <p class="stock in-stock">4 in stock</p>
  </li>
  <li class="product type-product outofstock">
    <a class="woocommerce-LoopProduct-link" href="/product/pillars-of-strength/">
      <h2 class="woocommerce-loop-product__title">Pillars of Strength Booster Box</h2>
    </a>
  </li>
  <li class="product type-product">
    <h2 class="woocommerce-loop-product__title">Card without a loop link</h2>
  </li>
</ul>
</body></html>`

func TestListingPageFetcher_FetchAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	t.Cleanup(srv.Close)

	f := NewListingPageFetcher(srv.URL + "/one-piece/")

	products, err := f.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	// No SKU on WooCommerce loops: the URL is the key.
	first := products[0]
	assert.Equal(t, srv.URL+"/product/romance-dawn/", first.Key)
	assert.Equal(t, first.Key, first.URL)
	assert.Equal(t, "Romance Dawn Booster Box", first.Title)
	assert.Equal(t, srv.URL+"/wp-content/uploads/op-01.jpg", first.Image)
	assert.Equal(t, "£89.99", first.Price)
	// Displayed and purchasable, no explicit count: quantity floor of 1.
	assert.Equal(t, 1, first.StockQty)

	// Explicit "N in stock" badge wins.
	assert.Equal(t, 4, products[1].StockQty)

	// outofstock card.
	assert.Equal(t, 0, products[2].StockQty)
}

func TestListingPageFetcher_FetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	f := NewListingPageFetcher(srv.URL)

	_, err := f.FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching listing page")
}

func TestLeadingInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"4 in stock", 4, true},
		{"12 in stock", 12, true},
		{"Out of stock", 0, false},
		{"", 0, false},
		{"-2 in stock", 0, false},
	}

	for _, tt := range tests {
		got, ok := leadingInt(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}
