package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kaido-bot/kaido/automod/cachestore"

	"github.com/stretchr/testify/assert"
)

func testServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/v3/simple/price" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		if q.Get("vs_currencies") != "usd" || q.Get("include_24hr_change") != "true" || q.Get("include_market_cap") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch q.Get("ids") {
		case "bitcoin":
			_, _ = w.Write([]byte(`{"bitcoin":{"usd":67123.45,"usd_market_cap":1321000000000.5,"usd_24h_change":-1.234}}`))
		case "avalanche-2":
			_, _ = w.Write([]byte(`{"avalanche-2":{"usd":31.2,"usd_24h_change":4.5}}`))
		case "broken":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
}

func TestCoinID(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("bitcoin", CoinID("btc"))
	assert.Equal("bitcoin", CoinID(" BTC "))
	assert.Equal("matic-network", CoinID("matic"))
	assert.Equal("toncoin", CoinID("TON"))
	assert.Equal("somecoin", CoinID("SomeCoin"))
}

func TestLookupPrice(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var hits atomic.Int32
	srv := testServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, nil, 0, nil)

	q, err := c.LookupPrice(ctx, "btc")
	assert.NoError(err)
	if assert.NotNil(q) {
		assert.Equal("BTC", q.Symbol)
		assert.Equal("bitcoin", q.CoinID)
		assert.Equal(67123.45, q.Price)
		assert.Equal(-1.234, q.Change24h)
		assert.Equal(1321000000000.5, q.MarketCap)
		assert.Equal(0.0, q.Volume)
	}

	// hyphenated coin ID, missing market cap
	q, err = c.LookupPrice(ctx, "AVAX")
	assert.NoError(err)
	if assert.NotNil(q) {
		assert.Equal(31.2, q.Price)
		assert.Equal(0.0, q.MarketCap)
	}

	q, err = c.LookupPrice(ctx, "nosuchcoin")
	assert.NoError(err)
	assert.Nil(q)

	_, err = c.LookupPrice(ctx, "broken")
	assert.Error(err)

	_, err = c.LookupPrice(ctx, "  ")
	assert.Error(err)
}

func TestLookupPriceCached(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var hits atomic.Int32
	srv := testServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, cachestore.NewMemCacheStore(10, time.Minute), 100, nil)

	q, err := c.LookupPrice(ctx, "btc")
	assert.NoError(err)
	assert.NotNil(q)
	q, err = c.LookupPrice(ctx, "BTC")
	assert.NoError(err)
	if assert.NotNil(q) {
		assert.Equal(67123.45, q.Price)
	}
	assert.Equal(int32(1), hits.Load())

	// misses are not cached
	_, _ = c.LookupPrice(ctx, "nosuchcoin")
	_, _ = c.LookupPrice(ctx, "nosuchcoin")
	assert.Equal(int32(3), hits.Load())
}
