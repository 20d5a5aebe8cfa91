// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus counters for the post board.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons
const (
	ReasonMissingField = "missing_field"
	ReasonInvalidField = "invalid_field"
	ReasonBlankContent = "blank_content"
	ReasonTooLarge     = "too_large"
	ReasonCSRF         = "csrf"
	ReasonForbidden    = "forbidden"
	ReasonMethod       = "method"
	ReasonRateLimited  = "rate_limited"
)

var (
	PostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postboard_posts_created_total",
		Help: "Posts successfully created.",
	})
	PostsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postboard_posts_deleted_total",
		Help: "Posts successfully deleted.",
	})
	TrackingIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postboard_tracking_tokens_issued_total",
		Help: "Tracking tokens issued because the request had no valid one.",
	})
	CSRFIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postboard_csrf_tokens_issued_total",
		Help: "Anti-forgery tokens issued for rendered forms.",
	})
	Rejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_requests_rejected_total",
		Help: "Requests rejected before reaching storage, by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(PostsCreated, PostsDeleted, TrackingIssued, CSRFIssued, Rejected)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
