// Package sweeper corre el barrido periódico que expira órdenes vencidas.
package sweeper

import (
	"context"
	"log"
	"time"

	"order-lifecycle-service/internal/metrics"
	"order-lifecycle-service/internal/service"
)

type Sweeper struct {
	svc      *service.OrderService
	metrics  *metrics.Engine
	interval time.Duration
}

func New(svc *service.OrderService, m *metrics.Engine, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, metrics: m, interval: interval}
}

// Run bloquea hasta que el contexto se cancele. Puede correr en varias
// réplicas a la vez: ExpireOrder es idempotente y la transición real es
// un compare-and-set, así que nadie expira ni devuelve stock dos veces.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Sweeper de expiración corriendo cada %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper detenido")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep hace una pasada: busca órdenes abiertas vencidas y las expira
// una por una. Los errores por orden se loguean y no cortan la pasada.
func (s *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		s.metrics.Sweeps.Inc()
		s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	orders, err := s.svc.ExpirableOrders(ctx)
	if err != nil {
		log.Printf("❌ Error listando órdenes vencidas: %v", err)
		return
	}

	for _, o := range orders {
		if err := s.svc.ExpireOrder(ctx, o.ID); err != nil {
			log.Printf("❌ Error expirando la orden %s: %v", o.ID, err)
			continue
		}
		log.Printf("⏰ Orden %s expirada", o.OrderNumber)
	}
}
