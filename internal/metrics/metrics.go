// Package metrics exposes assembler activity as Prometheus metrics.
//
// Observer implements engine.Observer. Register it with an assembler and
// serve Handler on an HTTP listener:
//
//	reg := prometheus.NewRegistry()
//	obs := metrics.NewObserver(reg)
//	asm := engine.New(engine.WithObserver(obs))
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/ir"
)

const namespace = "provgraph"

// Observer records assembler events. Methods are called under the assembler
// lock and only touch Prometheus collectors, which never block on it.
type Observer struct {
	NodesIndexed   prometheus.Counter
	NodesReplaced  prometheus.Counter
	EdgesQueued    prometheus.Counter
	EdgesResolved  prometheus.Counter
	ResolveErrors  prometheus.Counter
	Batches        prometheus.Counter
	BatchResolved  prometheus.Histogram
	PendingEdges   prometheus.Gauge
	IndexSize      prometheus.Gauge
	LastBatchEdges prometheus.Gauge
}

// NewObserver creates an Observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		NodesIndexed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_indexed_total",
			Help:      "Node records indexed, including replacements",
		}),
		NodesReplaced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_replaced_total",
			Help:      "Node records that replaced an existing identifier",
		}),
		EdgesQueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_queued_total",
			Help:      "Edge records appended to the pending queue",
		}),
		EdgesResolved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_resolved_total",
			Help:      "Edges resolved and removed from the pending queue",
		}),
		ResolveErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_errors_total",
			Help:      "Resolved edges the downstream consumer failed to accept",
		}),
		Batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Resolution passes run",
		}),
		BatchResolved: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_resolved_edges",
			Help:      "Edges resolved per resolution pass",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		PendingEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_edges",
			Help:      "Edges waiting for an endpoint",
		}),
		IndexSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_nodes",
			Help:      "Distinct node identifiers in the index",
		}),
		LastBatchEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_batch_remaining_edges",
			Help:      "Edges left pending after the most recent pass",
		}),
	}
}

// NodeIndexed implements engine.Observer.
func (o *Observer) NodeIndexed(_ ir.NodeRecord, replaced bool, indexSize int) {
	o.NodesIndexed.Inc()
	if replaced {
		o.NodesReplaced.Inc()
	}
	o.IndexSize.Set(float64(indexSize))
}

// EdgeQueued implements engine.Observer.
func (o *Observer) EdgeQueued(_ ir.EdgeRecord, _ int64, pending int) {
	o.EdgesQueued.Inc()
	o.PendingEdges.Set(float64(pending))
}

// BatchStarted implements engine.Observer.
func (o *Observer) BatchStarted(uint64, int) {
	o.Batches.Inc()
}

// EdgeResolved implements engine.Observer.
func (o *Observer) EdgeResolved(uint64, ir.EdgeRecord, int64) {
	o.EdgesResolved.Inc()
}

// BatchFinished implements engine.Observer.
func (o *Observer) BatchFinished(_ uint64, resolved, remaining int) {
	o.BatchResolved.Observe(float64(resolved))
	o.PendingEdges.Set(float64(remaining))
	o.LastBatchEdges.Set(float64(remaining))
}

// ResolveFailed implements engine.Observer.
func (o *Observer) ResolveFailed(*engine.ResolveError) {
	o.ResolveErrors.Inc()
}

// Handler serves the metrics in reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve runs an HTTP server exposing /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, reg prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
