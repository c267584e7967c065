// Package observability provides OpenTelemetry metrics with a
// Prometheus scrape endpoint for long-running collection daemons. A
// single reconciliation run is short-lived, so the instruments are
// cheap no-ops unless a meter provider is installed.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "ghtraf"

// Provider bundles the OTel meter provider with the HTTP handler that
// serves its Prometheus scrape endpoint.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	Handler       http.Handler
}

// NewProvider creates a Prometheus-backed OTel meter provider and the
// /metrics handler that exposes it. Each call uses an independent
// registry so repeated construction never collides on collector names.
func NewProvider() (*Provider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &Provider{
		MeterProvider: provider,
		Handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}
