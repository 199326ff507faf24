package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitMeterProvider(t *testing.T) {
	reg := prometheus.NewRegistry()

	mp, err := InitMeterProvider(reg)
	require.NoError(t, err)
	defer Shutdown(context.Background(), mp)

	counter, err := otel.Meter("telemetry-test").Int64Counter("test_lookups")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_lookups_total")
}
