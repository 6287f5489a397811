package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/model"
)

// Mongo implementation

type MongoOrderRepository struct {
	col *mongo.Collection
}

// NewMongoOrderRepository crea la colección e índices. El índice parcial
// único sobre user_id (solo órdenes abiertas) hace cumplir el lock de
// orden pendiente también a nivel de base de datos: dos inserciones
// concurrentes no pueden colarse entre el chequeo y el insert.
func NewMongoOrderRepository(ctx context.Context, db *mongo.Database) (*MongoOrderRepository, error) {
	col := db.Collection("orders")

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": []string{string(model.StatusPending), string(model.StatusProofUploaded)}},
				}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "payment_deadline", Value: 1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creando índices de orders: %w", err)
	}

	return &MongoOrderRepository{col: col}, nil
}

var _ OrderRepository = (*MongoOrderRepository)(nil)

// Documentos BSON. Los montos se guardan como string decimal para no
// perder precisión; model usa shopspring/decimal.

type orderItemDoc struct {
	ProductID string `bson:"product_id"`
	Name      string `bson:"name"`
	Quantity  int    `bson:"quantity"`
	UnitPrice string `bson:"unit_price"`
	Subtotal  string `bson:"subtotal"`
}

type totalsDoc struct {
	Subtotal string `bson:"subtotal"`
	Tax      string `bson:"tax"`
	Shipping string `bson:"shipping"`
	Discount string `bson:"discount"`
	Total    string `bson:"total"`
}

type addressDoc struct {
	Street     string `bson:"street"`
	City       string `bson:"city"`
	PostalCode string `bson:"postal_code"`
	Province   string `bson:"province"`
	Country    string `bson:"country"`
	Comments   string `bson:"comments"`
}

type statusRecordDoc struct {
	Status    string    `bson:"status"`
	Timestamp time.Time `bson:"timestamp"`
	Note      string    `bson:"note"`
	ActorID   string    `bson:"actor_id"`
}

type orderDoc struct {
	ID                 string            `bson:"_id"`
	OrderNumber        string            `bson:"order_number"`
	UserID             string            `bson:"user_id"`
	Items              []orderItemDoc    `bson:"items"`
	ShippingAddress    addressDoc        `bson:"shipping_address"`
	Totals             totalsDoc         `bson:"totals"`
	PaymentMethodType  string            `bson:"payment_method_type"`
	PaymentMethodName  string            `bson:"payment_method_name"`
	Status             string            `bson:"status"`
	PaymentDeadline    time.Time         `bson:"payment_deadline"`
	PaymentProofURL    string            `bson:"payment_proof_url,omitempty"`
	ReferenceNumber    string            `bson:"reference_number,omitempty"`
	History            []statusRecordDoc `bson:"history"`
	CancellationReason string            `bson:"cancellation_reason,omitempty"`
	CanceledAt         *time.Time        `bson:"canceled_at,omitempty"`
	Archived           bool              `bson:"archived"`
	ArchivedAt         *time.Time        `bson:"archived_at,omitempty"`
	StockRestored      bool              `bson:"stock_restored"`
	CreatedAt          time.Time         `bson:"created_at"`
	UpdatedAt          time.Time         `bson:"updated_at"`
	Version            int64             `bson:"version"`
}

func toOrderDoc(o *model.Order) orderDoc {
	items := make([]orderItemDoc, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.String(),
			Subtotal:  it.Subtotal.String(),
		}
	}
	history := make([]statusRecordDoc, len(o.StatusHistory))
	for i, h := range o.StatusHistory {
		history[i] = statusRecordDoc{
			Status:    string(h.Status),
			Timestamp: h.Timestamp,
			Note:      h.Note,
			ActorID:   h.ActorID,
		}
	}
	return orderDoc{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Items:       items,
		ShippingAddress: addressDoc{
			Street:     o.ShippingAddress.Street,
			City:       o.ShippingAddress.City,
			PostalCode: o.ShippingAddress.PostalCode,
			Province:   o.ShippingAddress.Province,
			Country:    o.ShippingAddress.Country,
			Comments:   o.ShippingAddress.Comments,
		},
		Totals: totalsDoc{
			Subtotal: o.Totals.Subtotal.String(),
			Tax:      o.Totals.Tax.String(),
			Shipping: o.Totals.Shipping.String(),
			Discount: o.Totals.Discount.String(),
			Total:    o.Totals.Total.String(),
		},
		PaymentMethodType:  o.PaymentMethodType,
		PaymentMethodName:  o.PaymentMethodName,
		Status:             string(o.Status),
		PaymentDeadline:    o.PaymentDeadline,
		PaymentProofURL:    o.PaymentProofURL,
		ReferenceNumber:    o.ReferenceNumber,
		History:            history,
		CancellationReason: o.CancellationReason,
		CanceledAt:         o.CanceledAt,
		Archived:           o.Archived,
		ArchivedAt:         o.ArchivedAt,
		StockRestored:      o.StockRestored,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Version:            o.Version,
	}
}

func parseDec(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func fromOrderDoc(d orderDoc) (*model.Order, error) {
	o := &model.Order{
		ID:          d.ID,
		OrderNumber: d.OrderNumber,
		UserID:      d.UserID,
		ShippingAddress: model.Address{
			Street:     d.ShippingAddress.Street,
			City:       d.ShippingAddress.City,
			PostalCode: d.ShippingAddress.PostalCode,
			Province:   d.ShippingAddress.Province,
			Country:    d.ShippingAddress.Country,
			Comments:   d.ShippingAddress.Comments,
		},
		PaymentMethodType:  d.PaymentMethodType,
		PaymentMethodName:  d.PaymentMethodName,
		Status:             model.Status(d.Status),
		PaymentDeadline:    d.PaymentDeadline,
		PaymentProofURL:    d.PaymentProofURL,
		ReferenceNumber:    d.ReferenceNumber,
		CancellationReason: d.CancellationReason,
		CanceledAt:         d.CanceledAt,
		Archived:           d.Archived,
		ArchivedAt:         d.ArchivedAt,
		StockRestored:      d.StockRestored,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		Version:            d.Version,
	}

	var err error
	o.Items = make([]model.OrderItem, len(d.Items))
	for i, it := range d.Items {
		item := model.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
		}
		if item.UnitPrice, err = parseDec(it.UnitPrice); err != nil {
			return nil, fmt.Errorf("unit_price del item %s: %w", it.ProductID, err)
		}
		if item.Subtotal, err = parseDec(it.Subtotal); err != nil {
			return nil, fmt.Errorf("subtotal del item %s: %w", it.ProductID, err)
		}
		o.Items[i] = item
	}

	if o.Totals.Subtotal, err = parseDec(d.Totals.Subtotal); err != nil {
		return nil, err
	}
	if o.Totals.Tax, err = parseDec(d.Totals.Tax); err != nil {
		return nil, err
	}
	if o.Totals.Shipping, err = parseDec(d.Totals.Shipping); err != nil {
		return nil, err
	}
	if o.Totals.Discount, err = parseDec(d.Totals.Discount); err != nil {
		return nil, err
	}
	if o.Totals.Total, err = parseDec(d.Totals.Total); err != nil {
		return nil, err
	}

	o.StatusHistory = make([]model.StatusRecord, len(d.History))
	for i, h := range d.History {
		o.StatusHistory[i] = model.StatusRecord{
			Status:    model.Status(h.Status),
			Timestamp: h.Timestamp,
			Note:      h.Note,
			ActorID:   h.ActorID,
		}
	}

	return o, nil
}

func (m *MongoOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	o.Version = 1
	_, err := m.col.InsertOne(ctx, toOrderDoc(o))
	if mongo.IsDuplicateKeyError(err) {
		// chocó contra el índice parcial: el usuario ya tiene una orden abierta
		existing, ferr := m.FindOpenByUser(ctx, o.UserID)
		if ferr != nil {
			return &apperr.ConflictError{}
		}
		return &apperr.ConflictError{Existing: existing}
	}
	return err
}

func (m *MongoOrderRepository) Update(ctx context.Context, o *model.Order) error {
	next := *o
	next.Version = o.Version + 1
	next.UpdatedAt = time.Now().UTC()

	res, err := m.col.ReplaceOne(ctx,
		bson.M{"_id": o.ID, "version": o.Version},
		toOrderDoc(&next),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguimos "no existe" de "perdió la carrera"
		count, cerr := m.col.CountDocuments(ctx, bson.M{"_id": o.ID})
		if cerr == nil && count == 0 {
			return apperr.ErrNotFound
		}
		return apperr.ErrVersionConflict
	}

	o.Version = next.Version
	o.UpdatedAt = next.UpdatedAt
	return nil
}

func (m *MongoOrderRepository) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var d orderDoc
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromOrderDoc(d)
}

func (m *MongoOrderRepository) FindOpenByUser(ctx context.Context, userID string) (*model.Order, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": []string{string(model.StatusPending), string(model.StatusProofUploaded)}},
	}
	var d orderDoc
	err := m.col.FindOne(ctx, filter).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromOrderDoc(d)
}

func (m *MongoOrderRepository) FindByUser(ctx context.Context, userID string, status *model.Status) ([]*model.Order, error) {
	filter := bson.M{"user_id": userID}
	if status != nil {
		filter["status"] = string(*status)
	}
	return m.findMany(ctx, filter)
}

func (m *MongoOrderRepository) FindByStatus(ctx context.Context, status model.Status) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{"status": string(status)})
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{})
}

func (m *MongoOrderRepository) FindExpirable(ctx context.Context, now time.Time) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{
		"status":           bson.M{"$in": []string{string(model.StatusPending), string(model.StatusProofUploaded)}},
		"payment_deadline": bson.M{"$lt": now},
	})
}

func (m *MongoOrderRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	cur, err := m.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Order
	for cur.Next(ctx) {
		var d orderDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		o, err := fromOrderDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, cur.Err()
}

// MongoProductRepository guarda productos y stock.
type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection("products")}
}

var _ ProductRepository = (*MongoProductRepository)(nil)

type productDoc struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Price string `bson:"price"`
	Stock int    `bson:"stock"`
}

func (m *MongoProductRepository) Upsert(ctx context.Context, p *model.Product) error {
	doc := productDoc{ID: p.ID, Name: p.Name, Price: p.Price.String(), Stock: p.Stock}
	opts := options.Replace().SetUpsert(true)
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, opts)
	return err
}

func (m *MongoProductRepository) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	var d productDoc
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	price, err := parseDec(d.Price)
	if err != nil {
		return nil, err
	}
	return &model.Product{ID: d.ID, Name: d.Name, Price: price, Stock: d.Stock}, nil
}

// DecrementStock descuenta stock con un update condicional: el filtro
// stock >= qty hace que el decremento sea linealizable por producto y
// nunca deje stock negativo.
func (m *MongoProductRepository) DecrementStock(ctx context.Context, productID string, qty int) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": productID, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &apperr.OutOfStockError{ProductID: productID, Requested: qty}
	}
	return nil
}

func (m *MongoProductRepository) IncrementStock(ctx context.Context, productID string, qty int) error {
	// MatchedCount == 0 significa producto borrado: se ignora a propósito
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$inc": bson.M{"stock": qty}},
	)
	return err
}
