package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/cardboard-bank/bankload/loadtest/oteladapters"
)

func givenMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics), "failed to collect metrics")

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	t.Fatalf("metric %s not found", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration_ShouldRecordSeconds(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()

	// act
	collector.RecordDuration("bankapi_request_duration_seconds", 150*time.Millisecond, map[string]string{
		"operation": "get_service",
		"status":    "success",
	})

	// assert
	m := findMetric(t, collect(t, reader), "bankapi_request_duration_seconds")
	assert.Equal(t, "s", m.Unit)
	assert.Equal(t, "load simulation metric of bankapi", m.Description)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected a float64 histogram")
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expected := attribute.NewSet(attribute.String("operation", "get_service"), attribute.String("status", "success"))
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter_ShouldSumPerLabelSet(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()
	ctx := context.Background()

	// act
	collector.IncrementCounter("bankuser_task_outcomes_total", map[string]string{"outcome": "transferred"})
	collector.IncrementCounterContext(ctx, "bankuser_task_outcomes_total", map[string]string{"outcome": "transferred"})
	collector.IncrementCounterContext(ctx, "bankuser_task_outcomes_total", map[string]string{"outcome": "skipped_no_funds"})

	// assert
	sum, ok := findMetric(t, collect(t, reader), "bankuser_task_outcomes_total").Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum")
	require.Len(t, sum.DataPoints, 2)

	totals := make(map[string]int64)
	for _, dataPoint := range sum.DataPoints {
		outcome, _ := dataPoint.Attributes.Value("outcome")
		totals[outcome.AsString()] = dataPoint.Value
	}

	assert.Equal(t, map[string]int64{"transferred": 2, "skipped_no_funds": 1}, totals)
}

func Test_MetricsCollector_RecordValue_ShouldKeepLastValue(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()

	// act
	collector.RecordValue("swarm_users_running", 3, nil)
	collector.RecordValueContext(context.Background(), "swarm_users_running", 5, nil)

	// assert
	gauge, ok := findMetric(t, collect(t, reader), "swarm_users_running").Data.(metricdata.Gauge[float64])
	require.True(t, ok, "expected a float64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 5.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_ShouldBeSafeForConcurrentUse(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()

	// act
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				collector.IncrementCounter("swarm_sessions_total", map[string]string{"status": "success"})
				collector.RecordDuration("bankuser_task_duration_seconds", time.Millisecond, nil)
			}
		}()
	}
	wg.Wait()

	// assert
	sum, ok := findMetric(t, collect(t, reader), "swarm_sessions_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1000), sum.DataPoints[0].Value)
}
