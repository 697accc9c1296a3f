package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kaido-bot/kaido/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

// owner used when none is configured
const defaultOwnerNumber = "2347020593904"

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "kaido",
		Usage:   "group moderation bot for WhatsApp",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"KAIDO_LOG_LEVEL", "GOLOG_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: json or text",
			EnvVars: []string{"KAIDO_LOG_FMT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "connect to the chat network and run the bot",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "owner",
			Usage:   "phone number (digits only) of the bot owner",
			Value:   defaultOwnerNumber,
			EnvVars: []string{"KAIDO_OWNER"},
		},
		&cli.StringFlag{
			Name:    "mode",
			Usage:   "initial bot mode: private or public",
			Value:   "private",
			EnvVars: []string{"KAIDO_MODE"},
		},
		&cli.StringFlag{
			Name:    "session-db",
			Usage:   "path of the SQLite database holding the session keys",
			Value:   "data/kaido/session.db",
			EnvVars: []string{"KAIDO_SESSION_DB"},
		},
		&cli.StringFlag{
			Name:    "phone",
			Usage:   "phone number to pair with, when no session exists yet",
			EnvVars: []string{"KAIDO_PAIR_PHONE"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for the price cache; in-process cache if not set",
			EnvVars: []string{"KAIDO_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "coingecko-host",
			Usage:   "method, hostname, and port of the CoinGecko API",
			Value:   "https://api.coingecko.com",
			EnvVars: []string{"KAIDO_COINGECKO_HOST"},
		},
		&cli.Float64Flag{
			Name:    "price-rate-limit",
			Usage:   "max number of requests per second to the price API",
			Value:   0.5,
			EnvVars: []string{"KAIDO_PRICE_RATE_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "price-cache-ttl",
			Usage:   "how long price quotes are cached",
			Value:   time.Minute,
			EnvVars: []string{"KAIDO_PRICE_CACHE_TTL"},
		},
		&cli.StringFlag{
			Name:    "menu-image",
			Usage:   "optional image file sent along with the menu",
			EnvVars: []string{"KAIDO_MENU_IMAGE"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"KAIDO_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger, err := cliutil.SetupSlog(cliutil.LogOptions{
			LogLevel:  cctx.String("log-level"),
			LogFormat: cctx.String("log-format"),
		})
		if err != nil {
			return err
		}

		shutdownTracing, err := configOTEL(ctx, "kaido")
		if err != nil {
			return err
		}
		defer shutdownTracing()

		var menuImage []byte
		if p := cctx.String("menu-image"); p != "" {
			menuImage, err = os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("reading menu image: %w", err)
			}
		}

		srv, err := NewServer(Config{
			OwnerNumber:    cctx.String("owner"),
			Mode:           cctx.String("mode"),
			SessionDB:      cctx.String("session-db"),
			PairPhone:      cctx.String("phone"),
			RedisURL:       cctx.String("redis-url"),
			CoinGeckoHost:  cctx.String("coingecko-host"),
			PriceRateLimit: cctx.Float64("price-rate-limit"),
			PriceCacheTTL:  cctx.Duration("price-cache-ttl"),
			MenuImage:      menuImage,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.RunConsumer(ctx); err != nil {
			return fmt.Errorf("failed to run bot: %w", err)
		}
		return nil
	},
}
