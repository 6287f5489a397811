package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/dto"
	"order-lifecycle-service/internal/filestore"
	"order-lifecycle-service/internal/model"
	"order-lifecycle-service/internal/service"
)

type OrderController struct {
	Service   *service.OrderService
	Retention *service.RetentionService
	Files     filestore.Resolver
}

func NewOrderController(s *service.OrderService, r *service.RetentionService, f filestore.Resolver) *OrderController {
	return &OrderController{Service: s, Retention: r, Files: f}
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		ID:    c.GetString("userID"),
		Admin: c.GetString("userRole") == "admin",
	}
}

// writeError traduce la taxonomía de negocio a códigos HTTP. Los
// errores de regla de negocio no se reintentan; el cliente decide.
func writeError(c *gin.Context, err error) {
	var (
		validationErr *apperr.ValidationError
		conflictErr   *apperr.ConflictError
		stateErr      *apperr.InvalidStateError
		expiredErr    *apperr.ExpiredError
		stockErr      *apperr.OutOfStockError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Msg})
	case errors.As(err, &conflictErr):
		body := gin.H{"error": conflictErr.Error()}
		if conflictErr.Existing != nil {
			body["existingOrder"] = dto.ToSummary(conflictErr.Existing)
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error(), "currentStatus": stateErr.From})
	case errors.As(err, &expiredErr):
		c.JSON(http.StatusGone, gin.H{"error": expiredErr.Error(), "paymentDeadline": expiredErr.Deadline})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": stockErr.Error(), "code": "OUT_OF_STOCK", "productId": stockErr.ProductID})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot operate on another user's order"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// POST /orders
func (ctl *OrderController) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	userID := req.UserID
	if userID == "" {
		userID = actor.ID
	}
	if userID != actor.ID && !actor.Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot create orders for another user"})
		return
	}

	items := lo.Map(req.Items, func(it dto.OrderItemDTO, _ int) model.OrderItem {
		return it.ToModel()
	})

	order, err := ctl.Service.CreateOrder(
		c.Request.Context(),
		userID,
		items,
		req.Address.ToModel(),
		req.PaymentMethod.Type,
		req.PaymentMethod.Name,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GET /orders/:orderId
func (ctl *OrderController) GetOrder(c *gin.Context) {
	o, err := ctl.Service.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}

	actor := actorFrom(c)
	if !actor.Admin && o.UserID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot view another user's order"})
		return
	}

	c.JSON(http.StatusOK, o)
}

// GET /users/:userId/orders?status=
func (ctl *OrderController) GetUserOrders(c *gin.Context) {
	userID := c.Param("userId")
	actor := actorFrom(c)
	if !actor.Admin && userID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot view another user's orders"})
		return
	}

	status, err := statusFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	orders, err := ctl.Service.GetUserOrders(c.Request.Context(), userID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(orders, func(o *model.Order, _ int) dto.OrderSummaryResponse {
		return dto.ToSummary(o)
	}))
}

// PUT /orders/:orderId/items
func (ctl *OrderController) UpdateItems(c *gin.Context) {
	var req dto.UpdateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := lo.Map(req.Items, func(it dto.OrderItemDTO, _ int) model.OrderItem {
		return it.ToModel()
	})

	order, err := ctl.Service.UpdateItems(c.Request.Context(), c.Param("orderId"), items, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /orders/:orderId/payment-method
func (ctl *OrderController) ChangePaymentMethod(c *gin.Context) {
	var req dto.ChangePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := ctl.Service.ChangePaymentMethod(
		c.Request.Context(),
		c.Param("orderId"),
		req.PaymentMethod.Type,
		req.PaymentMethod.Name,
		actorFrom(c),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// POST /orders/:orderId/payment-proof — multipart: file + referenceNumber
func (ctl *OrderController) SubmitPaymentProof(c *gin.Context) {
	orderID := c.Param("orderId")
	actor := actorFrom(c)

	o, err := ctl.Service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !actor.Admin && o.UserID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot operate on another user's order"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "falta el archivo del comprobante"})
		return
	}
	referenceNumber := c.PostForm("referenceNumber")

	proofURL, err := ctl.Files.Store(c.Request.Context(), orderID, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	order, err := ctl.Service.SubmitPaymentProof(c.Request.Context(), orderID, proofURL, referenceNumber, actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /orders/:orderId/status — transición administrativa. La revisión
// del comprobante solo resuelve el pago: paid (aprobar) o pending
// (rechazar); nunca avanza la entrega.
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	orderID := c.Param("orderId")

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, ok := model.ToStatus(req.Status)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "estado desconocido: " + req.Status})
		return
	}

	actor := actorFrom(c)
	ctx := c.Request.Context()

	var (
		order *model.Order
		err   error
	)
	switch target {
	case model.StatusPaid:
		order, err = ctl.Service.ReviewProof(ctx, orderID, service.DecisionApprove, req.Reason, actor.ID)
	case model.StatusPending:
		order, err = ctl.Service.ReviewProof(ctx, orderID, service.DecisionReject, req.Reason, actor.ID)
	case model.StatusShipped, model.StatusDelivered:
		order, err = ctl.Service.AdvanceFulfillment(ctx, orderID, target, actor.ID)
	case model.StatusCanceled:
		order, err = ctl.Service.CancelOrder(ctx, orderID, req.Reason, actor)
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ese estado no se puede asignar directamente"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// PATCH /orders/:orderId/cancel — cancelación iniciada por el cliente
func (ctl *OrderController) CancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := ctl.Service.CancelOrder(c.Request.Context(), c.Param("orderId"), req.Reason, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GET /admin/orders?status=
func (ctl *OrderController) ListOrders(c *gin.Context) {
	status, err := statusFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	orders, err := ctl.Service.ListOrders(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(orders, func(o *model.Order, _ int) dto.OrderSummaryResponse {
		return dto.ToSummary(o)
	}))
}

// PATCH /orders/:orderId/archive
func (ctl *OrderController) ArchiveOrder(c *gin.Context) {
	order, err := ctl.Retention.ArchiveOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PATCH /orders/:orderId/unarchive
func (ctl *OrderController) UnarchiveOrder(c *gin.Context) {
	order, err := ctl.Retention.UnarchiveOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DELETE /orders/:orderId/archive — borrado definitivo. La regla de los
// 30 días se verifica acá, del lado del servidor, siempre.
func (ctl *OrderController) DeleteArchived(c *gin.Context) {
	if err := ctl.Retention.DeleteArchived(c.Request.Context(), c.Param("orderId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
}

func statusFilter(c *gin.Context) (*model.Status, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	status, ok := model.ToStatus(raw)
	if !ok {
		return nil, apperr.Validationf("estado desconocido: %s", raw)
	}
	return &status, nil
}
