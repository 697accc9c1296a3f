// Client for live crypto price quotes, backed by the CoinGecko "simple/price" API.
package pricefeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kaido-bot/kaido/automod/cachestore"
	"github.com/kaido-bot/kaido/util"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const DefaultHost = "https://api.coingecko.com"

type Quote struct {
	Symbol    string  `json:"symbol"`
	CoinID    string  `json:"coinId"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	// not provided by the simple/price endpoint; always zero
	Volume    float64   `json:"volume"`
	MarketCap float64   `json:"marketCap"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// common ticker symbols, mapped to CoinGecko coin IDs
var symbolIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"XRP":   "ripple",
	"BNB":   "binancecoin",
	"AVAX":  "avalanche-2",
	"UNI":   "uniswap",
	"LTC":   "litecoin",
	"ATOM":  "cosmos",
	"NEAR":  "near",
	"FTM":   "fantom",
	"ALGO":  "algorand",
	"VET":   "vechain",
	"ICP":   "internet-computer",
	"APT":   "aptos",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"PEPE":  "pepe",
	"SHIB":  "shiba-inu",
	"COAI":  "coai",
	"TON":   "toncoin",
}

// CoinID maps a ticker symbol to a CoinGecko coin ID. Unknown symbols are assumed to already be an ID.
func CoinID(symbol string) string {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	if id, ok := symbolIDs[upper]; ok {
		return id
	}
	return strings.ToLower(upper)
}

type Client struct {
	Host   string
	Client *http.Client
	// optional, rate-limits outbound API requests (cache hits are not limited)
	Limiter *rate.Limiter
	// optional
	Cache     cachestore.CacheStore
	Logger    *slog.Logger
	UserAgent string
}

func NewClient(host string, cache cachestore.CacheStore, requestsPerSecond float64, logger *slog.Logger) *Client {
	if host == "" {
		host = DefaultHost
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &Client{
		Host:      strings.TrimSuffix(host, "/"),
		Client:    util.RobustHTTPClient(logger),
		Limiter:   limiter,
		Cache:     cache,
		Logger:    logger.With("component", "pricefeed"),
		UserAgent: "kaido-bot",
	}
}

// LookupPrice fetches the current USD quote for a ticker symbol.
//
// Returns nil (and no error) if the upstream API does not know the coin.
func (c *Client) LookupPrice(ctx context.Context, symbol string) (*Quote, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return nil, fmt.Errorf("empty price symbol")
	}
	coinID := CoinID(sym)

	if c.Cache != nil {
		var q Quote
		found, err := cachestore.GetJSON(ctx, c.Cache, "price", coinID, &q)
		if err != nil {
			c.Logger.Warn("price cache read failed", "err", err, "coin", coinID)
		} else if found {
			priceLookups.WithLabelValues("cached").Inc()
			q.Symbol = sym
			return &q, nil
		}
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q, err := c.fetch(ctx, sym, coinID)
	if err != nil {
		priceLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	if q == nil {
		priceLookups.WithLabelValues("notfound").Inc()
		return nil, nil
	}
	priceLookups.WithLabelValues("fetched").Inc()

	if c.Cache != nil {
		if err := cachestore.SetJSON(ctx, c.Cache, "price", coinID, q); err != nil {
			c.Logger.Warn("price cache write failed", "err", err, "coin", coinID)
		}
	}
	return q, nil
}

func (c *Client) fetch(ctx context.Context, sym, coinID string) (*Quote, error) {
	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	params.Set("include_market_cap", "true")
	u := c.Host + "/api/v3/simple/price?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.Client.Do(req)
	priceLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("price lookup request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price lookup HTTP status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("price lookup returned invalid JSON")
	}

	// coin IDs are response object keys, and may contain characters which are special in gjson paths
	var entry gjson.Result
	gjson.ParseBytes(body).ForEach(func(key, val gjson.Result) bool {
		if key.String() == coinID {
			entry = val
			return false
		}
		return true
	})
	if !entry.Exists() || !entry.Get("usd").Exists() {
		c.Logger.Info("coin not found upstream", "symbol", sym, "coin", coinID)
		return nil, nil
	}

	return &Quote{
		Symbol:    sym,
		CoinID:    coinID,
		Price:     entry.Get("usd").Float(),
		Change24h: entry.Get("usd_24h_change").Float(),
		MarketCap: entry.Get("usd_market_cap").Float(),
		FetchedAt: time.Now().UTC(),
	}, nil
}
