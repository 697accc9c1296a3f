package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kaido-bot/kaido/automod/cachestore"
	"github.com/kaido-bot/kaido/automod/countstore"
	"github.com/kaido-bot/kaido/automod/engine"
	"github.com/kaido-bot/kaido/automod/flagstore"
	"github.com/kaido-bot/kaido/automod/identity"
	"github.com/kaido-bot/kaido/automod/macrostore"
	"github.com/kaido-bot/kaido/automod/setstore"
	"github.com/kaido-bot/kaido/pricefeed"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	logger    *slog.Logger
	engine    *engine.Engine
	sessionDB string
	pairPhone string
}

type Config struct {
	OwnerNumber    string
	Mode           string
	SessionDB      string
	PairPhone      string
	RedisURL       string
	CoinGeckoHost  string
	PriceRateLimit float64
	PriceCacheTTL  time.Duration
	MenuImage      []byte
	Logger         *slog.Logger
}

// NewServer wires the decision engine and its stores. The chat transport is attached by RunConsumer.
func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	mode, err := engine.ParseBotMode(config.Mode)
	if err != nil {
		return nil, err
	}

	ttl := config.PriceCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	var cache cachestore.CacheStore
	if config.RedisURL != "" {
		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, ttl)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh
		logger.Info("using redis for price cache")
	} else {
		csh := cachestore.NewMemCacheStore(1_000, ttl)
		cache = &csh
	}

	ecfg := engine.DefaultConfig()
	ecfg.MenuImage = config.MenuImage

	eng := &engine.Engine{
		Logger:   logger,
		Owner:    identity.NewOwnerConfig(config.OwnerNumber),
		Mode:     engine.NewModeSwitch(mode),
		Warnings: countstore.NewMemCountStore(),
		Policies: flagstore.NewMemFlagStore(),
		Sets:     setstore.NewMemSetStore(),
		Macros:   macrostore.NewRegistry(),
		Prices:   pricefeed.NewClient(config.CoinGeckoHost, cache, config.PriceRateLimit, logger),
		Config:   ecfg,
	}

	s := &Server{
		logger:    logger,
		engine:    eng,
		sessionDB: config.SessionDB,
		pairPhone: config.PairPhone,
	}
	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}
