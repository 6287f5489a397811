package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine agrupa los contadores del motor de órdenes.
type Engine struct {
	OrdersCreated  prometheus.Counter
	OrdersExpired  prometheus.Counter
	OrdersCanceled prometheus.Counter
	Transitions    *prometheus.CounterVec
	Sweeps         prometheus.Counter
	SweepDuration  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Engine {
	e := &Engine{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "order_lifecycle",
			Name:      "orders_created_total",
			Help:      "Total de órdenes creadas.",
		}),
		OrdersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "order_lifecycle",
			Name:      "orders_expired_total",
			Help:      "Total de órdenes expiradas por el sweeper.",
		}),
		OrdersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "order_lifecycle",
			Name:      "orders_canceled_total",
			Help:      "Total de órdenes canceladas.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "order_lifecycle",
			Name:      "status_transitions_total",
			Help:      "Transiciones de estado confirmadas.",
		}, []string{"from", "to"}),
		Sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "order_lifecycle",
			Name:      "sweeps_total",
			Help:      "Pasadas del sweeper de expiración.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "order_lifecycle",
			Name:      "sweep_duration_seconds",
			Help:      "Duración de cada pasada del sweeper.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		e.OrdersCreated,
		e.OrdersExpired,
		e.OrdersCanceled,
		e.Transitions,
		e.Sweeps,
		e.SweepDuration,
	)
	return e
}

func Handler() http.Handler {
	return promhttp.Handler()
}
