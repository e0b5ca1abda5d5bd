package bankuser

import (
	"context"
	"time"

	"github.com/cardboard-bank/bankload/loadtest"
)

const (
	// MetricBootstraps counts finished bootstraps by status.
	MetricBootstraps = "bankuser_bootstraps_total"

	// MetricTaskOutcomes counts transfer attempts by outcome.
	MetricTaskOutcomes = "bankuser_task_outcomes_total"

	// MetricTaskDuration records the duration of one transfer attempt.
	MetricTaskDuration = "bankuser_task_duration_seconds"

	operationBootstrap      = "bootstrap"
	operationRunTransaction = "run_transaction"

	logMsgAuthFailedRegistering = "authentication failed, registering"
	logMsgBootstrapped          = "session bootstrapped"
	logMsgServiceCreated        = "service created"

	logAttrUsername       = "username"
	logAttrUserID         = "user_id"
	logAttrServiceCount   = "service_count"
	logAttrServiceID      = "service_id"
	logAttrInitialBalance = "initial_balance"
	logAttrError          = "error"

	labelOperation = "operation"
	labelStatus    = "status"
	labelOutcome   = "outcome"

	spanNamePrefix = "bankuser."
)

type observation struct {
	u         *User
	ctx       context.Context
	span      loadtest.SpanContext
	operation string
	start     time.Time
}

func (u *User) startObservation(ctx context.Context, operation string) (context.Context, *observation) {
	var span loadtest.SpanContext
	if u.tracingCollector != nil {
		ctx, span = u.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
			labelOperation: operation,
		})
	}

	return ctx, &observation{u: u, ctx: ctx, span: span, operation: operation, start: time.Now()}
}

// finish records the result. outcome is empty for bootstrap and for failed transfers.
func (o *observation) finish(err error, outcome string) {
	status := loadtest.StatusSuccess
	if err != nil {
		status = loadtest.StatusError
	}

	labels := map[string]string{labelOperation: o.operation, labelStatus: status}
	if outcome != "" {
		labels[labelOutcome] = outcome
	}

	switch o.operation {
	case operationBootstrap:
		o.u.incrementCounter(o.ctx, MetricBootstraps, labels)
	default:
		o.u.incrementCounter(o.ctx, MetricTaskOutcomes, labels)
		o.u.recordDuration(o.ctx, MetricTaskDuration, time.Since(o.start), labels)
	}

	if o.u.tracingCollector != nil && o.span != nil {
		attrs := map[string]string{}
		if outcome != "" {
			attrs[labelOutcome] = outcome
		}
		if err != nil {
			attrs[logAttrError] = err.Error()
		}

		o.u.tracingCollector.FinishSpan(o.span, status, attrs)
	}
}

func (u *User) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if u.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := u.metricsCollector.(loadtest.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	u.metricsCollector.IncrementCounter(metric, labels)
}

func (u *User) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if u.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := u.metricsCollector.(loadtest.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	u.metricsCollector.RecordDuration(metric, duration, labels)
}

func (u *User) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case u.contextualLogger != nil:
		u.contextualLogger.DebugContext(ctx, msg, args...)
	case u.logger != nil:
		u.logger.Debug(msg, args...)
	}
}

func (u *User) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case u.contextualLogger != nil:
		u.contextualLogger.InfoContext(ctx, msg, args...)
	case u.logger != nil:
		u.logger.Info(msg, args...)
	}
}
