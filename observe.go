package gani

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// observer fans operation outcomes out to the configured logger and
// metric registry. A nil observer discards everything, so callers can
// defer observe() unconditionally.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	obs := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		obs.metrics = m
	}
	return obs, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	o.count(op, elapsed, err)
	o.log(op, elapsed, err)
}

func (o *observer) count(op string, elapsed time.Duration, err error) {
	if o.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.metrics.operations.WithLabelValues(op, status).Inc()
	o.metrics.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (o *observer) log(op string, elapsed time.Duration, err error) {
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("client operation failed", "op", op, "duration", elapsed, "error", err)
		return
	}
	o.logger.Debug("client operation completed", "op", op, "duration", elapsed)
}

// sdkMetrics is the client-side metric set, registered once per registry.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gani",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "Total client operations by type and status.",
	}, []string{"operation", "status"})
	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gani",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "Client operation duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	m := &sdkMetrics{}
	var err error
	if m.operations, err = reuseRegistered(reg, ops); err != nil {
		return nil, err
	}
	if m.duration, err = reuseRegistered(reg, dur); err != nil {
		return nil, err
	}
	return m, nil
}

// reuseRegistered registers fresh with reg, or hands back the collector
// already registered under the same descriptor. Two clients sharing one
// registry therefore share one metric set.
func reuseRegistered[C prometheus.Collector](reg prometheus.Registerer, fresh C) (C, error) {
	err := reg.Register(fresh)
	if err == nil {
		return fresh, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return fresh, fmt.Errorf("gani: register metric: %w", err)
	}
	prev, ok := dup.ExistingCollector.(C)
	if !ok {
		return fresh, fmt.Errorf("gani: metric already registered with incompatible type %T", dup.ExistingCollector)
	}
	return prev, nil
}
