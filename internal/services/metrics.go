package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the service counters. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	CodesIssued         prometheus.Counter
	QuotationsCreated   *prometheus.CounterVec
	QuotationDecisions  *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	GeocodeLookups      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CodesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cotizador_verification_codes_issued_total",
			Help: "Verification codes issued and sent by SMS.",
		}),
		QuotationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cotizador_quotations_created_total",
			Help: "Quotations created, by category.",
		}, []string{"categoria"}),
		QuotationDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cotizador_quotation_decisions_total",
			Help: "Accept and reject decisions applied to quotations.",
		}, []string{"outcome"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cotizador_notifications_failed_total",
			Help: "Notifications that could not be delivered, by channel.",
		}, []string{"channel"}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cotizador_geocode_lookups_total",
			Help: "Postal code lookups, by source (cache or api).",
		}, []string{"source"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CodesIssued,
		m.QuotationsCreated,
		m.QuotationDecisions,
		m.NotificationsFailed,
		m.GeocodeLookups,
	)
	return m
}
