package otel

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce     sync.Once
	boardActionsCounter metric.Int64Counter
	boardActionDuration metric.Float64Histogram
	remoteCallsCounter  metric.Int64Counter
	remoteCallDuration  metric.Float64Histogram
	configFlushCounter  metric.Int64Counter
	configFlushDuration metric.Float64Histogram
	sseConnectionsGauge metric.Int64ObservableGauge
	sseEventsCounter    metric.Int64Counter
	sseConnections      int64
	sseConnectionsMu    sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		boardActionsCounter, err = m.Int64Counter("osboard_board_actions_total", metric.WithDescription("Board actions by action and outcome"))
		if err != nil {
			return
		}
		boardActionDuration, err = m.Float64Histogram("osboard_board_action_duration_seconds", metric.WithDescription("Board action duration in seconds"))
		if err != nil {
			return
		}
		remoteCallsCounter, err = m.Int64Counter("osboard_remote_calls_total", metric.WithDescription("Calls to the maintenance API"))
		if err != nil {
			return
		}
		remoteCallDuration, err = m.Float64Histogram("osboard_remote_call_duration_seconds", metric.WithDescription("Maintenance API call duration in seconds"))
		if err != nil {
			return
		}
		configFlushCounter, err = m.Int64Counter("osboard_config_flushes_total", metric.WithDescription("Scheduler config saves by outcome"))
		if err != nil {
			return
		}
		configFlushDuration, err = m.Float64Histogram("osboard_config_flush_duration_seconds", metric.WithDescription("Scheduler config save duration in seconds"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("osboard_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("osboard_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
		if err != nil {
			return
		}
	})
	return err
}

// RecordBoardAction records one board action (load, drop, reset, lock, ...).
func RecordBoardAction(ctx context.Context, action, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(AttrAction.String(action), AttrOutcome.String(outcome))
	if boardActionsCounter != nil {
		boardActionsCounter.Add(ctx, 1, attrs)
	}
	if boardActionDuration != nil {
		boardActionDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordRemoteCall records one maintenance API call. status is 0 on transport errors.
func RecordRemoteCall(ctx context.Context, method, route string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(AttrMethod.String(method), AttrRoute.String(route), AttrStatus.String(strconv.Itoa(status)))
	if remoteCallsCounter != nil {
		remoteCallsCounter.Add(ctx, 1, attrs)
	}
	if remoteCallDuration != nil {
		remoteCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrMethod.String(method), AttrRoute.String(route)))
	}
}

// RecordConfigFlush records one debounced config save.
func RecordConfigFlush(ctx context.Context, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	if configFlushCounter != nil {
		configFlushCounter.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(outcome)))
	}
	if configFlushDuration != nil {
		configFlushDuration.Record(ctx, duration.Seconds())
	}
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}

// BoardCountFunc returns the number of loaded work orders by status and the backlog size.
type BoardCountFunc func() (byStatus map[string]int64, backlog int64)

// InitMetricsWithBoardCount creates instruments and optionally registers a callback for board gauges.
// Call after InitMeterProvider. If count is nil, board gauges are not reported.
func InitMetricsWithBoardCount(ctx context.Context, count BoardCountFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if count == nil {
		return nil
	}
	m := Meter()
	ordersGauge, err := m.Int64ObservableGauge("osboard_work_orders", metric.WithDescription("Loaded work orders by status"))
	if err != nil {
		return err
	}
	backlogGauge, err := m.Int64ObservableGauge("osboard_backlog_size", metric.WithDescription("Work orders in the backlog"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		byStatus, backlog := count()
		for status, n := range byStatus {
			o.ObserveInt64(ordersGauge, n, metric.WithAttributes(attribute.String("status", status)))
		}
		o.ObserveInt64(backlogGauge, backlog)
		return nil
	}, ordersGauge, backlogGauge)
	return err
}
