package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_submitted_total",
			Help:      "Order submissions by result",
		},
		[]string{"result"},
	)

	sessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "sessions_started_total",
			Help:      "Browsing sessions started, by whether a host identity was present",
		},
		[]string{"identity"},
	)

	enhancements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "description_enhancements_total",
			Help:      "Description enhancement calls by result",
		},
		[]string{"result"},
	)
)
