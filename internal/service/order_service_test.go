package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/inventory"
	"order-lifecycle-service/internal/metrics"
	"order-lifecycle-service/internal/model"
	"order-lifecycle-service/internal/repository"
)

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(_ context.Context, _, title, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.titles...)
}

func newTestService(t *testing.T) (*OrderService, *repository.MemoryStore, *recordingNotifier) {
	t.Helper()
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := NewOrderService(
		store,
		inventory.New(store),
		notifier,
		metrics.New(prometheus.NewRegistry()),
		48*time.Hour,
	)
	return svc, store, notifier
}

func seedProduct(t *testing.T, store *repository.MemoryStore, id string, stock int) {
	t.Helper()
	err := store.Upsert(context.Background(), &model.Product{
		ID:    id,
		Name:  gofakeit.ProductName(),
		Price: decimal.NewFromInt(100),
		Stock: stock,
	})
	require.NoError(t, err)
}

func productStock(t *testing.T, store *repository.MemoryStore, id string) int {
	t.Helper()
	p, err := store.FindProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func testAddress() model.Address {
	return model.Address{
		Street:     gofakeit.Street(),
		City:       gofakeit.City(),
		PostalCode: gofakeit.Zip(),
		Province:   "Mendoza",
		Country:    "Argentina",
	}
}

func item(productID string, qty int, price int64) model.OrderItem {
	return model.OrderItem{
		ProductID: productID,
		Name:      "Producto " + productID,
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(price),
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestCreateOrder(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 2, 100)}, testAddress(), "transferencia", "Transferencia bancaria")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, "u1", order.UserID)
	assert.NotEmpty(t, order.ID)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, t0.Add(48*time.Hour), order.PaymentDeadline)
	assert.True(t, order.Totals.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal: %s", order.Totals.Subtotal)

	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, model.StatusPending, order.StatusHistory[0].Status)

	assert.Equal(t, 3, productStock(t, store, "p1"))
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	badAddress := testAddress()
	badAddress.City = ""

	tests := []struct {
		name    string
		userID  string
		items   []model.OrderItem
		address model.Address
		method  string
	}{
		{"sin items", "u1", nil, testAddress(), "transferencia"},
		{"cantidad cero", "u1", []model.OrderItem{item("p1", 0, 100)}, testAddress(), "transferencia"},
		{"precio negativo", "u1", []model.OrderItem{item("p1", 1, -10)}, testAddress(), "transferencia"},
		{"direccion incompleta", "u1", []model.OrderItem{item("p1", 1, 100)}, badAddress, "transferencia"},
		{"sin usuario", "", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia"},
		{"sin metodo de pago", "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tt.userID, tt.items, tt.address, tt.method, "")
			var vErr *apperr.ValidationError
			require.ErrorAs(t, err, &vErr)
			// nada quedó reservado
			assert.Equal(t, 5, productStock(t, store, "p1"))
		})
	}
}

func TestCreateOrder_PendingOrderConflict(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 10)

	first, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 50)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 50)}, testAddress(), "transferencia", "")
	var cErr *apperr.ConflictError
	require.ErrorAs(t, err, &cErr)
	require.NotNil(t, cErr.Existing)
	assert.Equal(t, first.ID, cErr.Existing.ID)

	// el intento fallido devolvió su reserva
	assert.Equal(t, 9, productStock(t, store, "p1"))
}

func TestCreateOrder_OutOfStockLeavesNoPartialReservation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)
	seedProduct(t, store, "p2", 1)

	_, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{
		item("p1", 3, 100),
		item("p2", 2, 100),
	}, testAddress(), "transferencia", "")

	var sErr *apperr.OutOfStockError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "p2", sErr.ProductID)

	assert.Equal(t, 5, productStock(t, store, "p1"))
	assert.Equal(t, 1, productStock(t, store, "p2"))
}

func TestConcurrentCreates_SingleOpenOrderPerUser(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 20)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 50)}, testAddress(), "transferencia", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		var cErr *apperr.ConflictError
		require.ErrorAs(t, err, &cErr)
		conflicts++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)

	// solo la orden ganadora retiene stock
	assert.Equal(t, 19, productStock(t, store, "p1"))
}

func TestSubmitPaymentProof(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	updated, err := svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProofUploaded, updated.Status)
	assert.Equal(t, "/uploads/a.jpg", updated.PaymentProofURL)
	require.Len(t, updated.StatusHistory, 2)

	// re-subida: sobreescribe el comprobante sin duplicar historial
	again, err := svc.SubmitPaymentProof(ctx, order.ID, "/uploads/b.jpg", "REF-002", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProofUploaded, again.Status)
	assert.Equal(t, "/uploads/b.jpg", again.PaymentProofURL)
	assert.Equal(t, "REF-002", again.ReferenceNumber)
	assert.Len(t, again.StatusHistory, 2)
}

func TestSubmitPaymentProof_PastDeadline(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	svc.now = fixedClock(t0.Add(49 * time.Hour))
	_, err = svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", "u1")
	var eErr *apperr.ExpiredError
	require.ErrorAs(t, err, &eErr)
	assert.Equal(t, order.PaymentDeadline, eErr.Deadline)
}

func TestSubmitPaymentProof_InvalidState(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order := mustPaidOrder(t, svc, store, "u1")

	_, err := svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", "u1")
	var isErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, model.StatusPaid, isErr.From)
}

// mustPaidOrder crea una orden, sube comprobante y la aprueba.
func mustPaidOrder(t *testing.T, svc *OrderService, store *repository.MemoryStore, userID string) *model.Order {
	t.Helper()
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, userID, []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)
	_, err = svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", userID)
	require.NoError(t, err)
	order, err = svc.ReviewProof(ctx, order.ID, DecisionApprove, "", "admin1")
	require.NoError(t, err)
	return order
}

func TestReviewProof_Approve(t *testing.T) {
	svc, store, notifier := newTestService(t)
	seedProduct(t, store, "p1", 5)

	order := mustPaidOrder(t, svc, store, "u1")

	assert.Equal(t, model.StatusPaid, order.Status)
	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.Equal(t, model.StatusPaid, last.Status)
	assert.Contains(t, notifier.sent(), "Pago confirmado")

	// la reserva de stock sigue aplicada: la orden se pagó
	assert.Equal(t, 4, productStock(t, store, "p1"))
}

func TestReviewProof_Reject(t *testing.T) {
	svc, store, notifier := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)
	originalDeadline := order.PaymentDeadline

	_, err = svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", "u1")
	require.NoError(t, err)

	// sin motivo no hay rechazo
	_, err = svc.ReviewProof(ctx, order.ID, DecisionReject, "", "admin1")
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)

	rejected, err := svc.ReviewProof(ctx, order.ID, DecisionReject, "comprobante ilegible", "admin1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, rejected.Status)
	assert.Empty(t, rejected.PaymentProofURL)
	assert.Empty(t, rejected.ReferenceNumber)
	// el rechazo nunca extiende la fecha límite
	assert.Equal(t, originalDeadline, rejected.PaymentDeadline)
	assert.Contains(t, notifier.sent(), "Comprobante rechazado")
}

func TestRejectNearDeadlineThenSweepExpires(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)
	_, err = svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", "u1")
	require.NoError(t, err)

	// el rechazo llega con la orden ya vencida: vuelve a pending igual
	svc.now = fixedClock(t0.Add(49 * time.Hour))
	rejected, err := svc.ReviewProof(ctx, order.ID, DecisionReject, "comprobante ilegible", "admin1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, rejected.Status)

	// la próxima pasada del sweeper la expira, no queda pending para siempre
	expirable, err := svc.ExpirableOrders(ctx)
	require.NoError(t, err)
	require.Len(t, expirable, 1)

	require.NoError(t, svc.ExpireOrder(ctx, order.ID))
	final, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, final.Status)
	assert.Equal(t, 5, productStock(t, store, "p1"))
}

func TestAdvanceFulfillment(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order := mustPaidOrder(t, svc, store, "u1")

	// no se puede saltear shipped
	_, err := svc.AdvanceFulfillment(ctx, order.ID, model.StatusDelivered, "admin1")
	var isErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &isErr)

	shipped, err := svc.AdvanceFulfillment(ctx, order.ID, model.StatusShipped, "admin1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, shipped.Status)

	delivered, err := svc.AdvanceFulfillment(ctx, order.ID, model.StatusDelivered, "admin1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, delivered.Status)

	// delivered es terminal: ni cancelar se puede
	_, err = svc.CancelOrder(ctx, order.ID, "tarde", Actor{ID: "admin1", Admin: true})
	require.ErrorAs(t, err, &isErr)
}

func TestCancelOrder_PendingRestoresStock(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 2, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)
	assert.Equal(t, 3, productStock(t, store, "p1"))

	canceled, err := svc.CancelOrder(ctx, order.ID, "me arrepentí", Actor{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, canceled.Status)
	assert.Equal(t, "me arrepentí", canceled.CancellationReason)
	require.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, 5, productStock(t, store, "p1"))
}

func TestCancelOrder_PaidKeepsStock(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order := mustPaidOrder(t, svc, store, "u1")

	// admin cancelando una orden pagada necesita motivo
	_, err := svc.CancelOrder(ctx, order.ID, "", Actor{ID: "admin1", Admin: true})
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)

	canceled, err := svc.CancelOrder(ctx, order.ID, "pedido duplicado", Actor{ID: "admin1", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, canceled.Status)

	// la orden llegó a paid: el stock no se devuelve
	assert.Equal(t, 4, productStock(t, store, "p1"))
}

func TestCancelOrder_Forbidden(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, order.ID, "", Actor{ID: "u2"})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestConcurrentCancel_ExactlyOneWins(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedProduct(t, store, "p1", 5)

	order := mustPaidOrder(t, svc, store, "u1")

	const attempts = 2
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CancelOrder(context.Background(), order.ID, "carrera", Actor{ID: "admin1", Admin: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, invalid int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		var isErr *apperr.InvalidStateError
		require.ErrorAs(t, err, &isErr)
		invalid++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, invalid)
}

func TestConcurrentCancel_PendingReleasesStockOnce(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 2, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.CancelOrder(context.Background(), order.ID, "", Actor{ID: "u1"})
		}()
	}
	wg.Wait()

	// la devolución se aplicó exactamente una vez
	assert.Equal(t, 5, productStock(t, store, "p1"))
}

func TestExpireOrder_Idempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 2, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	// todavía no venció
	err = svc.ExpireOrder(ctx, order.ID)
	var isErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &isErr)

	svc.now = fixedClock(t0.Add(49 * time.Hour))
	require.NoError(t, svc.ExpireOrder(ctx, order.ID))
	assert.Equal(t, 5, productStock(t, store, "p1"))

	// repetir es un no-op, no un error, y no duplica la devolución
	require.NoError(t, svc.ExpireOrder(ctx, order.ID))
	assert.Equal(t, 5, productStock(t, store, "p1"))

	final, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, final.Status)
	require.Len(t, final.StatusHistory, 2)
}

func TestExpireOrder_NoOpOnDelivered(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order := mustPaidOrder(t, svc, store, "u1")
	_, err := svc.AdvanceFulfillment(ctx, order.ID, model.StatusShipped, "admin1")
	require.NoError(t, err)
	_, err = svc.AdvanceFulfillment(ctx, order.ID, model.StatusDelivered, "admin1")
	require.NoError(t, err)

	require.NoError(t, svc.ExpireOrder(ctx, order.ID))

	final, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, final.Status)
}

func TestUpdateItems(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 10)
	seedProduct(t, store, "p2", 10)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 2, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	updated, err := svc.UpdateItems(ctx, order.ID, []model.OrderItem{item("p2", 3, 50)}, Actor{ID: "u1"})
	require.NoError(t, err)
	assert.True(t, updated.Totals.Subtotal.Equal(decimal.NewFromInt(150)))

	// la reserva vieja se devolvió y la nueva quedó aplicada
	assert.Equal(t, 10, productStock(t, store, "p1"))
	assert.Equal(t, 7, productStock(t, store, "p2"))

	// con comprobante subido los items quedan congelados
	_, err = svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", "u1")
	require.NoError(t, err)
	_, err = svc.UpdateItems(ctx, order.ID, []model.OrderItem{item("p1", 1, 100)}, Actor{ID: "u1"})
	var isErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &isErr)
}

func TestChangePaymentMethod(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	updated, err := svc.ChangePaymentMethod(ctx, order.ID, "paypal", "PayPal", Actor{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "paypal", updated.PaymentMethodType)

	_, err = svc.SubmitPaymentProof(ctx, order.ID, "/uploads/a.jpg", "REF-001", "u1")
	require.NoError(t, err)
	_, err = svc.ChangePaymentMethod(ctx, order.ID, "transferencia", "", Actor{ID: "u1"})
	var isErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &isErr)
}

func TestStatusHistoryInvariant(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	order := mustPaidOrder(t, svc, store, "u1")
	_, err := svc.AdvanceFulfillment(ctx, order.ID, model.StatusShipped, "admin1")
	require.NoError(t, err)

	o, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)

	require.NotEmpty(t, o.StatusHistory)
	for i := 1; i < len(o.StatusHistory); i++ {
		assert.False(t, o.StatusHistory[i].Timestamp.Before(o.StatusHistory[i-1].Timestamp))
	}
	assert.Equal(t, o.Status, o.StatusHistory[len(o.StatusHistory)-1].Status)
}

func TestFindOpenOrder(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", 5)

	_, err := svc.FindOpenOrder(ctx, "u1")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	order, err := svc.CreateOrder(ctx, "u1", []model.OrderItem{item("p1", 1, 100)}, testAddress(), "transferencia", "")
	require.NoError(t, err)

	open, err := svc.FindOpenOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, open.ID)
}
