// Package poller implementa el contrato de sincronización del cliente:
// observar el estado de una orden por polling y reaccionar a cada
// transición exactamente una vez. Es la referencia que cualquier
// cliente (storefront o panel admin) debe replicar.
package poller

import (
	"context"
	"log"
	"time"

	"order-lifecycle-service/internal/model"
)

// FetchStatus consulta el estado actual de la orden observada.
type FetchStatus func(ctx context.Context) (model.Status, error)

// ReactFunc se invoca a lo sumo una vez por transición observada.
type ReactFunc func(from, to model.Status)

type Poller struct {
	interval time.Duration
	fetch    FetchStatus
	react    ReactFunc

	// last es el último estado ya procesado; repetir el mismo estado en
	// respuestas sucesivas no dispara la reacción de nuevo.
	last model.Status
}

func New(interval time.Duration, initial model.Status, fetch FetchStatus, react ReactFunc) *Poller {
	return &Poller{
		interval: interval,
		fetch:    fetch,
		react:    react,
		last:     initial,
	}
}

// Run bloquea hasta observar un estado terminal o hasta que el contexto
// se cancele. En cuanto ve un terminal corta el polling: no queda
// trabajo de fondo colgado para siempre.
func (p *Poller) Run(ctx context.Context) {
	if p.last.Terminal() {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := p.poll(ctx); done {
				return
			}
		}
	}
}

// poll hace una consulta. Los errores transitorios se loguean y se
// reintenta en el próximo tick; un error no consume la reacción.
func (p *Poller) poll(ctx context.Context) bool {
	status, err := p.fetch(ctx)
	if err != nil {
		log.Printf("❌ Error consultando estado: %v", err)
		return false
	}

	if status != p.last {
		from := p.last
		p.last = status
		p.react(from, status)
	}

	return status.Terminal()
}

// LastProcessed devuelve el último estado ya reaccionado.
func (p *Poller) LastProcessed() model.Status {
	return p.last
}
