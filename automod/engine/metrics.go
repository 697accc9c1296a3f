package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "kaido_event_duration_sec",
	Help: "Total duration of message event processing",
}, []string{"context"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_event_processed",
	Help: "Number of message events processed",
}, []string{"context"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_event_errors",
	Help: "Number of message events which failed processing",
}, []string{"type"})

var commandCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_command_invocations",
	Help: "Number of typed commands handled, by outcome",
}, []string{"command", "result"})

var macroReplayCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_command_macro_replays",
	Help: "Number of sticker macros replayed, by outcome",
}, []string{"macro", "result"})

var moderationActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_moderation_actions",
	Help: "Number of moderation actions applied to groups",
}, []string{"action"})
