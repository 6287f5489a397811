package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/model"
)

func newOrder(id, userID string, status model.Status, deadline time.Time) *model.Order {
	now := time.Now().UTC()
	o := &model.Order{
		ID:              id,
		OrderNumber:     "ORD-TEST-" + id,
		UserID:          userID,
		Items:           []model.OrderItem{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
		Status:          status,
		PaymentDeadline: deadline,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.AppendHistory(status, now, "Orden creada", userID)
	return o
}

func TestInsertEnforcesSingleOpenOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	deadline := time.Now().UTC().Add(48 * time.Hour)

	first := newOrder("o1", "u1", model.StatusPending, deadline)
	require.NoError(t, store.Insert(ctx, first))

	// segunda orden abierta del mismo usuario: conflicto con la primera
	err := store.Insert(ctx, newOrder("o2", "u1", model.StatusPending, deadline))
	var cErr *apperr.ConflictError
	require.ErrorAs(t, err, &cErr)
	require.NotNil(t, cErr.Existing)
	assert.Equal(t, "o1", cErr.Existing.ID)

	// otra de un usuario distinto entra sin problema
	require.NoError(t, store.Insert(ctx, newOrder("o3", "u2", model.StatusPending, deadline)))

	// y una cerrada del mismo usuario también
	require.NoError(t, store.Insert(ctx, newOrder("o4", "u1", model.StatusDelivered, deadline)))
}

func TestUpdateVersionCAS(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	o := newOrder("o1", "u1", model.StatusPending, time.Now().UTC().Add(time.Hour))
	require.NoError(t, store.Insert(ctx, o))

	a, err := store.FindByID(ctx, "o1")
	require.NoError(t, err)
	b, err := store.FindByID(ctx, "o1")
	require.NoError(t, err)

	a.Status = model.StatusCanceled
	require.NoError(t, store.Update(ctx, a))

	// b sigue con la versión vieja: pierde
	b.Status = model.StatusProofUploaded
	err = store.Update(ctx, b)
	require.ErrorIs(t, err, apperr.ErrVersionConflict)

	fresh, err := store.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, fresh.Status)
}

func TestFindReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	o := newOrder("o1", "u1", model.StatusPending, time.Now().UTC().Add(time.Hour))
	require.NoError(t, store.Insert(ctx, o))

	a, err := store.FindByID(ctx, "o1")
	require.NoError(t, err)
	a.Status = model.StatusCanceled
	a.StatusHistory[0].Note = "mutado"

	fresh, err := store.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, fresh.Status)
	assert.Equal(t, "Orden creada", fresh.StatusHistory[0].Note)
}

func TestFindExpirable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, newOrder("vencida", "u1", model.StatusPending, now.Add(-time.Minute))))
	require.NoError(t, store.Insert(ctx, newOrder("con-comprobante", "u2", model.StatusProofUploaded, now.Add(-time.Minute))))
	require.NoError(t, store.Insert(ctx, newOrder("vigente", "u3", model.StatusPending, now.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, newOrder("pagada", "u4", model.StatusPaid, now.Add(-time.Minute))))

	out, err := store.FindExpirable(ctx, now)
	require.NoError(t, err)

	ids := make([]string, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	assert.ElementsMatch(t, []string{"vencida", "con-comprobante"}, ids)
}

func TestFindByUserWithStatusFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	deadline := time.Now().UTC().Add(time.Hour)

	require.NoError(t, store.Insert(ctx, newOrder("o1", "u1", model.StatusDelivered, deadline)))
	require.NoError(t, store.Insert(ctx, newOrder("o2", "u1", model.StatusCanceled, deadline)))
	require.NoError(t, store.Insert(ctx, newOrder("o3", "u2", model.StatusDelivered, deadline)))

	all, err := store.FindByUser(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := model.StatusCanceled
	filtered, err := store.FindByUser(ctx, "u1", &status)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "o2", filtered[0].ID)
}
