// Package jobs tareas programadas con github.com/robfig/cron/v3.
//
// LowStockJob recorre los registros de inventario en o bajo su stock mínimo y los
// reporta en el log con la cantidad sugerida de reposición. No modifica existencias.
//
// La expresión cron lleva segundos (6 campos), p. ej. "0 */30 * * * *".
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/dto"
)

// ReplenishmentSource fuente de sugerencias de reposición (inventory.Ledger).
type ReplenishmentSource interface {
	Replenishment(ctx context.Context) ([]dto.ReplenishmentSuggestion, error)
}

// LowStockJob reporta periódicamente los productos con stock bajo.
type LowStockJob struct {
	source  ReplenishmentSource
	spec    string
	timeout time.Duration
	cron    *cron.Cron
	log     zerolog.Logger

	mu      sync.Mutex
	lastRun []dto.ReplenishmentSuggestion
}

// NewLowStockJob construye el job con la expresión cron dada.
func NewLowStockJob(source ReplenishmentSource, spec string, log zerolog.Logger) *LowStockJob {
	return &LowStockJob{
		source:  source,
		spec:    spec,
		timeout: 30 * time.Second,
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "low_stock_job").Logger(),
	}
}

// Start programa el job. Una expresión inválida devuelve error sin arrancar nada.
func (j *LowStockJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Error().Err(err).Msg("reporte de stock bajo falló")
		}
	})
	if err != nil {
		return fmt.Errorf("low stock job: cron %q: %w", j.spec, err)
	}
	j.cron.Start()
	j.log.Info().Str("cron", j.spec).Msg("job de stock bajo iniciado")
	return nil
}

// Stop detiene el cron y espera a que termine una ejecución en curso.
func (j *LowStockJob) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info().Msg("job de stock bajo detenido")
}

// RunOnce ejecuta el reporte una vez y devuelve las sugerencias.
func (j *LowStockJob) RunOnce(ctx context.Context) ([]dto.ReplenishmentSuggestion, error) {
	suggestions, err := j.source.Replenishment(ctx)
	if err != nil {
		return nil, err
	}
	j.mu.Lock()
	j.lastRun = suggestions
	j.mu.Unlock()

	if len(suggestions) == 0 {
		j.log.Debug().Msg("sin productos en stock bajo")
		return suggestions, nil
	}
	for _, s := range suggestions {
		j.log.Warn().
			Int("priority", s.Priority).
			Str("product_id", s.ProductID).
			Str("sku", s.SKU).
			Str("location", s.Location).
			Int("current_stock", s.CurrentStock).
			Int("min_stock", s.MinStock).
			Int("suggested_qty", s.SuggestedQty).
			Msg("stock bajo")
	}
	j.log.Info().Int("products", len(suggestions)).Msg("reporte de stock bajo")
	return suggestions, nil
}

// LastRun sugerencias de la última ejecución exitosa.
func (j *LowStockJob) LastRun() []dto.ReplenishmentSuggestion {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun
}
