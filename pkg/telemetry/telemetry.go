// Package telemetry exports dashboard state as Prometheus metrics: the
// authoritative and displayed value of every metric key, message and
// rejection counters per surface, and the scheduler queue depth.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyaapaar/dashcore/pkg/model"
)

// Exporter owns a private registry. It implements metrics.Publisher and
// conversation.Recorder.
type Exporter struct {
	reg *prometheus.Registry

	authoritative *prometheus.GaugeVec
	displayed     *prometheus.GaugeVec
	messages      *prometheus.CounterVec
	rejected      *prometheus.CounterVec
}

// New builds an Exporter. queueDepth, if non-nil, backs the
// vy_scheduler_tasks gauge.
func New(queueDepth func() int) *Exporter {
	e := &Exporter{
		reg: prometheus.NewRegistry(),
		authoritative: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vy_metric_authoritative",
			Help: "Latest authoritative value per dashboard metric.",
		}, []string{"key"}),
		displayed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vy_metric_displayed",
			Help: "Currently displayed (interpolated) value per dashboard metric.",
		}, []string{"key"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vy_messages_total",
			Help: "Messages appended to conversations.",
		}, []string{"surface", "origin"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vy_submissions_rejected_total",
			Help: "Submissions rejected as empty.",
		}, []string{"surface"}),
	}
	e.reg.MustRegister(e.authoritative, e.displayed, e.messages, e.rejected)
	if queueDepth != nil {
		e.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vy_scheduler_tasks",
			Help: "Callbacks waiting in the delay scheduler.",
		}, func() float64 { return float64(queueDepth()) }))
	}
	return e
}

// Registry exposes the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

// Publish records an authoritative snapshot.
func (e *Exporter) Publish(s model.Snapshot) {
	for k, v := range s {
		e.authoritative.WithLabelValues(k).Set(float64(v))
	}
}

// Displayed records the displayed snapshot.
func (e *Exporter) Displayed(s model.Snapshot) {
	for k, v := range s {
		e.displayed.WithLabelValues(k).Set(float64(v))
	}
}

// MessageAppended counts one appended message.
func (e *Exporter) MessageAppended(surface model.Surface, origin model.Origin) {
	e.messages.WithLabelValues(string(surface), string(origin)).Inc()
}

// SubmitRejected counts one rejected submission.
func (e *Exporter) SubmitRejected(surface model.Surface) {
	e.rejected.WithLabelValues(string(surface)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	slog.Info("metrics listening", "component", "telemetry", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
