package bankapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cardboard-bank/bankload/loadtest"
)

const (
	// MetricRequestDuration records the latency of every API call.
	MetricRequestDuration = "bankapi_request_duration_seconds"

	// MetricRequestsTotal counts every API call.
	MetricRequestsTotal = "bankapi_requests_total"

	logMsgRequestCompleted = "bank api request completed"
	logMsgUnexpectedStatus = "bank api replied with unexpected status"
	logMsgRequestFailed    = "bank api request failed"

	logAttrOperation  = "operation"
	logAttrMethod     = "method"
	logAttrPath       = "path"
	logAttrStatusCode = "status_code"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"

	labelOperation  = "operation"
	labelStatus     = "status"
	labelStatusCode = "status_code"

	spanNamePrefix     = "bankapi."
	spanAttrMethod     = "http.method"
	spanAttrPath       = "http.path"
	spanAttrStatusCode = "http.status_code"
	spanAttrDurationMS = "duration_ms"
	spanAttrErrorType  = "error_type"

	errorTypeStatus   = "unexpected_status"
	errorTypeDecode   = "decode"
	errorTypeRequest  = "request"
	errorTypeCanceled = "canceled"
)

func (c *Client) startSpan(ctx context.Context, call call) (context.Context, loadtest.SpanContext) {
	if c.tracingCollector == nil {
		return ctx, nil
	}

	return c.tracingCollector.StartSpan(ctx, spanNamePrefix+call.operation, map[string]string{
		labelOperation: call.operation,
		spanAttrMethod: call.method,
		spanAttrPath:   call.path,
	})
}

// observe finishes the span, records metrics and logs the outcome of one call.
func (c *Client) observe(
	ctx context.Context,
	span loadtest.SpanContext,
	call call,
	statusCode int,
	duration time.Duration,
	err error,
) {
	status := loadtest.StatusSuccess
	if err != nil {
		status = loadtest.StatusError
	}

	c.recordMetrics(ctx, call.operation, status, statusCode, duration)
	c.finishSpan(span, status, statusCode, duration, err)

	logArgs := []any{
		logAttrOperation, call.operation,
		logAttrMethod, call.method,
		logAttrPath, call.path,
		logAttrStatusCode, statusCode,
		logAttrDurationMS, toMilliseconds(duration),
	}

	switch {
	case err == nil:
		c.log(ctx, levelDebug, logMsgRequestCompleted, logArgs...)
	case errors.Is(err, ErrUnexpectedStatus):
		c.log(ctx, levelWarn, logMsgUnexpectedStatus, logArgs...)
	default:
		c.log(ctx, levelError, logMsgRequestFailed, append(logArgs, logAttrError, err.Error())...)
	}
}

func (c *Client) recordMetrics(ctx context.Context, operation, status string, statusCode int, duration time.Duration) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation:  operation,
		labelStatus:     status,
		labelStatusCode: strconv.Itoa(statusCode),
	}

	if contextualCollector, ok := c.metricsCollector.(loadtest.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, MetricRequestDuration, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, MetricRequestsTotal, labels)

		return
	}

	c.metricsCollector.RecordDuration(MetricRequestDuration, duration, labels)
	c.metricsCollector.IncrementCounter(MetricRequestsTotal, labels)
}

func (c *Client) finishSpan(span loadtest.SpanContext, status string, statusCode int, duration time.Duration, err error) {
	if c.tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		spanAttrStatusCode: strconv.Itoa(statusCode),
		spanAttrDurationMS: fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6),
	}

	if err != nil {
		attrs[spanAttrErrorType] = errorType(err)
	}

	c.tracingCollector.FinishSpan(span, status, attrs)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorTypeCanceled
	case errors.Is(err, ErrUnexpectedStatus):
		return errorTypeStatus
	case errors.Is(err, ErrDecodingResponseFailed):
		return errorTypeDecode
	default:
		return errorTypeRequest
	}
}

type logLevel int

const (
	levelDebug logLevel = iota
	levelWarn
	levelError
)

func (c *Client) log(ctx context.Context, level logLevel, msg string, args ...any) {
	if c.contextualLogger != nil {
		switch level {
		case levelDebug:
			c.contextualLogger.DebugContext(ctx, msg, args...)
		case levelWarn:
			c.contextualLogger.WarnContext(ctx, msg, args...)
		default:
			c.contextualLogger.ErrorContext(ctx, msg, args...)
		}

		return
	}

	if c.logger == nil {
		return
	}

	switch level {
	case levelDebug:
		c.logger.Debug(msg, args...)
	case levelWarn:
		c.logger.Warn(msg, args...)
	default:
		c.logger.Error(msg, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
