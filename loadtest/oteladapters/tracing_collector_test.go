package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/oteladapters"
)

func givenTracingCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(trace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_ShouldRecordSpan_WithStartAndFinishAttributes(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	_, span := collector.StartSpan(context.Background(), "bankapi.get_service", map[string]string{"http.method": "GET"})
	collector.FinishSpan(span, loadtest.StatusSuccess, map[string]string{"http.status_code": "200"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "bankapi.get_service", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	method, found := spanAttribute(spans[0], "http.method")
	assert.True(t, found)
	assert.Equal(t, "GET", method)

	statusCode, found := spanAttribute(spans[0], "http.status_code")
	assert.True(t, found)
	assert.Equal(t, "200", statusCode)
}

func Test_TracingCollector_ShouldUseErrorAttribute_AsStatusDescription(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	_, withError := collector.StartSpan(context.Background(), "bankuser.bootstrap", nil)
	collector.FinishSpan(withError, loadtest.StatusError, map[string]string{"error": "could not register"})

	_, withoutError := collector.StartSpan(context.Background(), "localstore.reset", nil)
	collector.FinishSpan(withoutError, loadtest.StatusError, nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "could not register", spans[0].Status.Description)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "operation failed", spans[1].Status.Description)
}

func Test_TracingCollector_ShouldKeepUnknownStatus_AsAttribute(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	_, span := collector.StartSpan(context.Background(), "swarm.user", nil)
	span.AddAttribute("user_index", "7")
	collector.FinishSpan(span, "skipped", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	status, _ := spanAttribute(spans[0], "status")
	assert.Equal(t, "skipped", status)

	index, _ := spanAttribute(spans[0], "user_index")
	assert.Equal(t, "7", index)
}

func Test_TracingCollector_ShouldNestSpans_ThroughContext(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	ctx, parent := collector.StartSpan(context.Background(), "bankuser.run_transaction", nil)
	_, child := collector.StartSpan(ctx, "bankapi.create_transaction", nil)
	collector.FinishSpan(child, loadtest.StatusSuccess, nil)
	collector.FinishSpan(parent, loadtest.StatusSuccess, nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func Test_TracingCollector_ShouldIgnoreForeignSpanContexts(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	collector.FinishSpan(nil, loadtest.StatusSuccess, nil)

	// assert
	assert.Empty(t, exporter.GetSpans())
}
