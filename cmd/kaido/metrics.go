package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_messages_received",
	Help: "Number of inbound messages received from the transport, by chat type",
}, []string{"chat"})

var sessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kaido_session_events",
	Help: "Number of transport session lifecycle events (connected, disconnected, logged out)",
}, []string{"event"})

var connected = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "kaido_connected",
	Help: "Whether the transport session is currently connected",
})
