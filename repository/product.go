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

const productNotFound = "Product not found"

// ProductRepository is the catalog store
type ProductRepository struct {
	base
}

func NewProductRepository(db *mongo.Database, timeout time.Duration) *ProductRepository {
	return &ProductRepository{base: newBase(db, ProductsCollection, timeout)}
}

func productFilter(q models.ProductQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Featured != nil {
		filter["featured"] = *q.Featured
	}
	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
	}
	return filter
}

func productSort(key string) bson.D {
	switch key {
	case models.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortName:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPopular:
		return bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortRating:
		return bson.D{{Key: "averageRating", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// Find returns one page of products matching q and the total match count.
// q must already be normalized.
func (r *ProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	filter := productFilter(q)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "count products")
	}

	opts := options.Find().
		SetSort(productSort(q.Sort)).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "find products")
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, apperrors.Wrap(err, "decode products")
	}
	return products, total, nil
}

// All returns the whole catalog, newest first.
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(productSort(models.SortNewest)))
	if err != nil {
		return nil, apperrors.Wrap(err, "find products")
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperrors.Wrap(err, "decode products")
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var p models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return nil, mapErr(err, productNotFound, "find product")
	}
	return &p, nil
}

// FindByIDs returns the existing products among ids, keyed by id.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Wrap(err, "find products")
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperrors.Wrap(err, "decode products")
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, p)
	return mapErr(err, productNotFound, "create product")
}

// Update sets only the fields present in upd and returns the stored product.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Sizes != nil {
		set["sizes"] = upd.Sizes
	}
	if upd.Images != nil {
		set["images"] = upd.Images
	}
	if upd.Stock != nil {
		set["stock"] = *upd.Stock
	}
	if upd.Featured != nil {
		set["featured"] = *upd.Featured
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		return nil, mapErr(err, productNotFound, "update product")
	}
	return &p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Wrap(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound(productNotFound)
	}
	return nil
}

// IncrementViews atomically bumps the view counter and returns the updated product.
func (r *ProductRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}}, opts).Decode(&p)
	if err != nil {
		return nil, mapErr(err, productNotFound, "increment views")
	}
	return &p, nil
}

// DecrementStock removes qty from stock only if at least qty remains.
// It reports false when the predicate did not match.
func (r *ProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, apperrors.Wrap(err, "decrement stock")
	}
	return res.MatchedCount == 1, nil
}

// IncrementStock returns qty units to stock.
func (r *ProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return apperrors.Wrap(err, "increment stock")
	}
	return nil
}

// SetRating stores the derived rating fields.
func (r *ProductRepository) SetRating(ctx context.Context, id primitive.ObjectID, s models.RatingSummary) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"averageRating": s.Average, "reviewCount": s.Count},
	})
	if err != nil {
		return apperrors.Wrap(err, "set rating")
	}
	return nil
}

// UpsertByName inserts p or overwrites the catalog fields of the product with
// the same name, leaving counters untouched. It reports whether p was inserted.
func (r *ProductRepository) UpsertByName(ctx context.Context, p *models.Product) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"category":    p.Category,
			"description": p.Description,
			"price":       p.Price,
			"sizes":       p.Sizes,
			"images":      p.Images,
			"stock":       p.Stock,
			"featured":    p.Featured,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"views":         0,
			"averageRating": 0.0,
			"reviewCount":   0,
			"createdAt":     now,
		},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"name": p.Name}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, apperrors.Wrap(err, "upsert product")
	}
	return res.UpsertedCount == 1, nil
}

// SetPriceByName updates the price of the named product and reports whether it exists.
func (r *ProductRepository) SetPriceByName(ctx context.Context, name string, price float64) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"name": name}, bson.M{
		"$set": bson.M{"price": price, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return false, apperrors.Wrap(err, "set price")
	}
	return res.MatchedCount == 1, nil
}
