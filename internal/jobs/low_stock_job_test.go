package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/infrastructure/memory"
	"github.com/jhoicas/gestor-api/internal/jobs"
	"github.com/jhoicas/gestor-api/pkg/clock"
)

type failingSource struct{}

func (failingSource) Replenishment(context.Context) ([]dto.ReplenishmentSuggestion, error) {
	return nil, errors.New("db caída")
}

func newLedger(t *testing.T) *inventory.Ledger {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC))
	ledger := inventory.NewLedger(store, store.Repos(), clk, &clock.Sequence{}, zerolog.Nop())

	ctx := context.Background()
	for _, p := range []struct {
		id       string
		qty, min int
	}{{"bajo", 2, 10}, {"justo", 5, 5}, {"sobrado", 50, 5}} {
		require.NoError(t, store.Repos().Products.Create(ctx, &entity.Product{
			ID: p.id, SKU: "SKU-" + p.id, Name: p.id, Price: decimal.NewFromInt(1), Active: true,
		}))
		_, err := ledger.CreateRecord(ctx, inventory.CreateRecordInput{ProductID: p.id, InitialQuantity: p.qty, MinStock: p.min})
		require.NoError(t, err)
	}
	return ledger
}

func TestLowStockJob_RunOnceReportaSoloBajoUmbral(t *testing.T) {
	var buf bytes.Buffer
	job := jobs.NewLowStockJob(newLedger(t), "0 */30 * * * *", zerolog.New(&buf))

	out, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "bajo", out[0].ProductID, "mayor déficit primero")
	assert.Equal(t, 1, out[0].Priority)
	assert.Equal(t, 13, out[0].SuggestedQty) // ideal 15 - 2
	assert.Equal(t, "justo", out[1].ProductID)
	assert.Equal(t, out, job.LastRun())

	logs := buf.String()
	assert.Contains(t, logs, `"product_id":"bajo"`)
	assert.Contains(t, logs, `"product_id":"justo"`)
	assert.NotContains(t, logs, `"product_id":"sobrado"`)
}

func TestLowStockJob_ErrorDeFuente(t *testing.T) {
	job := jobs.NewLowStockJob(failingSource{}, "* * * * * *", zerolog.Nop())
	_, err := job.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Nil(t, job.LastRun())
}

func TestLowStockJob_ExpresionInvalida(t *testing.T) {
	job := jobs.NewLowStockJob(failingSource{}, "cada media hora", zerolog.Nop())
	assert.Error(t, job.Start())
}

func TestLowStockJob_StartStop(t *testing.T) {
	job := jobs.NewLowStockJob(newLedger(t), "@every 1h", zerolog.Nop())
	require.NoError(t, job.Start())
	job.Stop()
}
