// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helphub_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helphub_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// TicketsCreated counts tickets created through any surface.
	TicketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helphub_tickets_created_total",
		Help: "Tickets created.",
	})

	// TicketUpdates counts ticket updates by outcome.
	TicketUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helphub_ticket_updates_total",
		Help: "Ticket update attempts by outcome.",
	}, []string{"outcome"})

	// ChatTurns counts chat sends by outcome (reply, fallback, unavailable).
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helphub_chat_turns_total",
		Help: "Chat turns by outcome.",
	}, []string{"outcome"})

	// ModelLatency observes how long the assistant model takes per turn.
	ModelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "helphub_model_latency_seconds",
		Help:    "Assistant model latency per chat turn.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// ToolCalls counts assistant tool invocations by tool and outcome.
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helphub_tool_calls_total",
		Help: "Assistant tool calls by tool and outcome.",
	}, []string{"tool", "outcome"})

	// UserCacheHits and UserCacheMisses track the authenticated-user cache.
	UserCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helphub_user_cache_hits_total",
		Help: "Authenticated user cache hits.",
	})
	UserCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helphub_user_cache_misses_total",
		Help: "Authenticated user cache misses.",
	})
)

// Middleware records request counts and latency. Routes are labelled by
// their registered pattern so ticket ids do not explode cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			httpRequestsTotal.WithLabelValues(c.Request().Method, route, status).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
