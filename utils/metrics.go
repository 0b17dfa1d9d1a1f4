package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievances_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grievances_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	GrievancesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grievances_created_total",
		Help: "Grievances filed.",
	})

	PartnerResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grievances_partner_responses_total",
		Help: "Partner responses written to a grievance.",
	})

	PartnerLinks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievances_partner_links_total",
		Help: "Partner link and unlink operations.",
	}, []string{"op"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievances_cache_lookups_total",
		Help: "Read cache lookups by result.",
	}, []string{"result"})
)
