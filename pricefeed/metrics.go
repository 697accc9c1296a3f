package pricefeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var priceLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_price_lookups",
	Help: "Number of price lookups, by result (fetched, cached, notfound, error)",
}, []string{"result"})

var priceLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "kaido_price_lookup_duration_sec",
	Help: "Duration of upstream price API requests",
})
