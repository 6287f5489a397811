package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/model"
	"order-lifecycle-service/internal/repository"
)

func newRetentionFixture(t *testing.T) (*OrderService, *RetentionService, *repository.MemoryStore) {
	t.Helper()
	svc, store, _ := newTestService(t)
	rs := NewRetentionService(store, 30)
	return svc, rs, store
}

func TestArchiveOrder(t *testing.T) {
	svc, rs, store := newRetentionFixture(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	// una orden pendiente no se archiva
	_, err = rs.ArchiveOrder(ctx, order.ID)
	var isErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &isErr)

	_, err = svc.CancelOrder(ctx, order.ID, "", Actor{ID: "u1"})
	require.NoError(t, err)

	archived, err := rs.ArchiveOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	require.NotNil(t, archived.ArchivedAt)

	// archivar dos veces no es un error
	again, err := rs.ArchiveOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, again.Archived)

	unarchived, err := rs.UnarchiveOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, unarchived.Archived)
	assert.Nil(t, unarchived.ArchivedAt)
}

func TestDeleteArchived_RetentionWindow(t *testing.T) {
	svc, rs, store := newRetentionFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)
	_, err = svc.CancelOrder(ctx, order.ID, "", Actor{ID: "u1"})
	require.NoError(t, err)
	_, err = rs.ArchiveOrder(ctx, order.ID)
	require.NoError(t, err)

	// a los 29 días el servidor rechaza, sin importar qué confirme el cliente
	rs.now = fixedClock(t0.Add(29 * 24 * time.Hour))
	err = rs.DeleteArchived(ctx, order.ID)
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)

	// a los 31 días procede
	rs.now = fixedClock(t0.Add(31 * 24 * time.Hour))
	require.NoError(t, rs.DeleteArchived(ctx, order.ID))

	_, err = svc.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteArchived_RequiresArchivedAndCanceled(t *testing.T) {
	svc, rs, store := newRetentionFixture(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)
	_, err = svc.CancelOrder(ctx, order.ID, "", Actor{ID: "u1"})
	require.NoError(t, err)

	// sin archivar no hay borrado
	err = rs.DeleteArchived(ctx, order.ID)
	var isErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &isErr)

	// entregada y archivada: no hay política de borrado definida
	delivered := mustPaidOrder(t, svc, store, "u2")
	_, err = svc.AdvanceFulfillment(ctx, delivered.ID, model.StatusShipped, "admin1")
	require.NoError(t, err)
	_, err = svc.AdvanceFulfillment(ctx, delivered.ID, model.StatusDelivered, "admin1")
	require.NoError(t, err)
	_, err = rs.ArchiveOrder(ctx, delivered.ID)
	require.NoError(t, err)

	err = rs.DeleteArchived(ctx, delivered.ID)
	require.ErrorAs(t, err, &isErr)

	// la orden sigue ahí
	_, err = svc.GetOrder(ctx, delivered.ID)
	require.NoError(t, err)
}
