package view

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

const meterName = "loov.dev/eventview/view"

type metrics struct {
	rebuilds     metric.Int64Counter
	appended     metric.Int64Counter
	refreshed    metric.Int64Counter
	rejected     metric.Int64Counter
	inconsistent metric.Int64Counter
	visible      metric.Int64UpDownCounter
}

func newMetrics(provider metric.MeterProvider) (*metrics, error) {
	meter := provider.Meter(meterName)

	m := &metrics{}
	var err error
	if m.rebuilds, err = meter.Int64Counter("eventview.view.rebuilds",
		metric.WithDescription("Window rebuilds")); err != nil {
		return nil, err
	}
	if m.appended, err = meter.Int64Counter("eventview.view.rows_appended",
		metric.WithDescription("Rows added by live appends")); err != nil {
		return nil, err
	}
	if m.refreshed, err = meter.Int64Counter("eventview.view.refreshes",
		metric.WithDescription("Rows recomputed after in-place changes")); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("eventview.view.rejected",
		metric.WithDescription("Malformed events rejected at ingestion")); err != nil {
		return nil, err
	}
	if m.inconsistent, err = meter.Int64Counter("eventview.view.inconsistent_durations",
		metric.WithDescription("Nodes whose children exceed their duration")); err != nil {
		return nil, err
	}
	if m.visible, err = meter.Int64UpDownCounter("eventview.view.visible_rows",
		metric.WithDescription("Rows currently visible")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) add(counter metric.Int64Counter, n int) {
	if n > 0 {
		counter.Add(context.Background(), int64(n))
	}
}

func (m *metrics) visibleDelta(n int) {
	if n != 0 {
		m.visible.Add(context.Background(), int64(n))
	}
}
