package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider installs a global MeterProvider whose instruments are
// exposed through reg, next to the plain Prometheus collectors.
func InitMeterProvider(reg prometheus.Registerer) (*metric.MeterProvider, error) {
	exporter, err := prometheusexporter.New(prometheusexporter.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}

	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	log.Info().Msg("OpenTelemetry MeterProvider initialized with Prometheus exporter")

	return mp, nil
}

// Shutdown flushes and stops the meter provider.
func Shutdown(ctx context.Context, mp *metric.MeterProvider) {
	if mp == nil {
		return
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down OpenTelemetry MeterProvider")
	}
}
