package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/apperrors"
	"storefront/models"
)

const orderNotFound = "Order not found"

type OrderRepository struct {
	base
}

func NewOrderRepository(db *mongo.Database, timeout time.Duration) *OrderRepository {
	return &OrderRepository{base: newBase(db, OrdersCollection, timeout)}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, o)
	return mapErr(err, orderNotFound, "order number")
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapErr(err, orderNotFound, "find order")
	}
	return &o, nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "find orders")
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, apperrors.Wrap(err, "decode orders")
	}
	return orders, nil
}

// FindByUser returns the user's orders, newest first.
func (r *OrderRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.find(ctx, bson.M{"user": userID})
}

// FindAll returns every order, newest first.
func (r *OrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

// UpdateStatus persists the mutable status fields of o.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *models.Order) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	set := bson.M{
		"orderStatus":   o.OrderStatus,
		"paymentStatus": o.PaymentStatus,
		"updatedAt":     o.UpdatedAt,
	}
	if o.PaidAt != nil {
		set["paidAt"] = o.PaidAt
	}
	if o.DeliveredAt != nil {
		set["deliveredAt"] = o.DeliveredAt
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": o.ID}, bson.M{"$set": set})
	if err != nil {
		return apperrors.Wrap(err, "update order")
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound(orderNotFound)
	}
	return nil
}

// Delete removes an order. Only used to undo an order whose placement failed.
func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return apperrors.Wrap(err, "delete order")
	}
	return nil
}

// HasPurchased reports whether the user has a shipped or delivered order containing product.
func (r *OrderRepository) HasPurchased(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	filter := bson.M{
		"user":          userID,
		"items.product": productID,
		"orderStatus":   bson.M{"$in": []models.OrderStatus{models.OrderShipped, models.OrderDelivered}},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, apperrors.Wrap(err, "check purchase")
	}
	return n > 0, nil
}
