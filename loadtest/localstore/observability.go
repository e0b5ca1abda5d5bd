package localstore

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cardboard-bank/bankload/loadtest"
)

const (
	logMsgBuildQueryFailed = "failed to build local store query"
	logMsgDBQueryFailed    = "local store query execution failed"
	logMsgDBExecFailed     = "local store statement execution failed"
	logMsgScanRowFailed    = "failed to scan local store row"
	logMsgCloseRowsFailed  = "failed to close local store rows"
	logMsgSQLExecuted      = "executed sql"
	logMsgReset            = "local store reset"
	logMsgIdentitiesSeeded = "identities seeded"

	logAttrError         = "error"
	logAttrQuery         = "query"
	logAttrDurationMS    = "duration_ms"
	logAttrRowCount      = "row_count"
	logAttrUsersTable    = "users_table"
	logAttrServicesTable = "services_table"

	metricOperationDuration = "localstore_operation_duration_seconds"
	metricOperationErrors   = "localstore_operation_errors_total"

	spanNamePrefix     = "localstore."
	spanAttrOperation  = "operation"
	spanAttrDialect    = "db.system"
	spanAttrDurationMS = "duration_ms"
	labelStatus        = "status"
)

// instrument wraps one store operation with a tracing span and duration/error metrics.
func (s *Store) instrument(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := s.startSpan(ctx, operation)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	status := loadtest.StatusSuccess
	if err != nil {
		status = loadtest.StatusError
		s.incrementCounter(ctx, metricOperationErrors, operation, status)
	}

	s.recordDuration(ctx, duration, operation, status)
	s.finishSpan(span, status, duration)

	return err
}

func (s *Store) startSpan(ctx context.Context, operation string) (context.Context, loadtest.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation: operation,
		spanAttrDialect:   s.dialect,
	})
}

func (s *Store) finishSpan(span loadtest.SpanContext, status string, duration time.Duration) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	s.tracingCollector.FinishSpan(span, status, map[string]string{
		spanAttrDurationMS: formatMilliseconds(duration),
	})
}

// recordDuration uses the context-aware method if the collector supports it.
func (s *Store) recordDuration(ctx context.Context, duration time.Duration, operation, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, labelStatus: status}

	if contextualCollector, ok := s.metricsCollector.(loadtest.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
}

func (s *Store) incrementCounter(ctx context.Context, metric, operation, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, labelStatus: status}

	if contextualCollector, ok := s.metricsCollector.(loadtest.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted, args...)
	case s.logger != nil:
		s.logger.Debug(logMsgSQLExecuted, args...)
	}
}

func (s *Store) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.InfoContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Info(msg, args...)
	}
}

func (s *Store) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.WarnContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Warn(msg, args...)
	}
}

func (s *Store) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	case s.logger != nil:
		s.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1e6)
}
