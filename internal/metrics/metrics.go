package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Uploads         *prometheus.CounterVec
	UploadRows      prometheus.Histogram
	ProfileDuration prometheus.Histogram
	Cleans          *prometheus.CounterVec
	RowsRemoved     prometheus.Counter
	CellsFilled     prometheus.Counter
	Requests        *prometheus.CounterVec
}

// New registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "uploads_total",
			Help:      "Uploaded datasets by outcome.",
		}, []string{"outcome"}),
		UploadRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dataprep",
			Name:      "upload_rows",
			Help:      "Row counts of accepted uploads.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 7),
		}),
		ProfileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dataprep",
			Name:      "profile_duration_seconds",
			Help:      "Time spent profiling and summarizing a dataset.",
			Buckets:   prometheus.DefBuckets,
		}),
		Cleans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "cleans_total",
			Help:      "Cleaning requests by outcome.",
		}, []string{"outcome"}),
		RowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "rows_removed_total",
			Help:      "Rows removed by cleaning.",
		}),
		CellsFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "cells_filled_total",
			Help:      "Missing cells filled by cleaning.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Uploads, m.UploadRows, m.ProfileDuration,
		m.Cleans, m.RowsRemoved, m.CellsFilled, m.Requests,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
