package util

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kaido-bot/kaido/util/ssrf"

	"github.com/hashicorp/go-retryablehttp"
)

// adapts slog to the retryablehttp leveled logger interface
type LeveledSlog struct {
	inner *slog.Logger
}

func NewLeveledSlog(logger *slog.Logger) LeveledSlog {
	if logger == nil {
		logger = slog.Default()
	}
	return LeveledSlog{inner: logger}
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

// re-writes HTTP client DEBUG to INFO level (this is where retry is logged)
func (l LeveledSlog) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

// Generates an HTTP client with decent general-purpose defaults around
// timeouts and retries. The returned client has the stdlib http.Client
// interface, but has Hashicorp retryablehttp logic internally.
//
// This client will retry on connection errors, 5xx status (except 501), and
// 429 Backoff requests (respecting 'Retry-After' header). It will log
// intermediate failures with WARN level.
//
// Used for price lookups and profile image fetches. Chat replies wait on
// these calls, so retries and timeouts are kept short.
func RobustHTTPClient(logger *slog.Logger) *http.Client {
	return robustClient(logger, nil)
}

// PublicHTTPClient is like RobustHTTPClient, but refuses to connect to private or local network addresses. Used for URLs which originate outside the bot.
func PublicHTTPClient(logger *slog.Logger) *http.Client {
	return robustClient(logger, ssrf.PublicOnlyTransport())
}

func robustClient(logger *slog.Logger, transport *http.Transport) *http.Client {
	retryClient := retryablehttp.NewClient()
	if transport != nil {
		retryClient.HTTPClient.Transport = transport
	}
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(NewLeveledSlog(logger))
	client := retryClient.StandardClient()
	client.Timeout = 15 * time.Second
	return client
}
