package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/apperrors"
	"storefront/models"
)

const cartNotFound = "Cart not found"

// cartDocument is the stored shape of a cart; exactly one of User and
// SessionID is set, derived from the cart's Identity.
type cartDocument struct {
	ID         primitive.ObjectID  `bson:"_id"`
	User       *primitive.ObjectID `bson:"user,omitempty"`
	SessionID  string              `bson:"sessionId,omitempty"`
	Items      []models.CartItem   `bson:"items"`
	TotalPrice float64             `bson:"totalPrice"`
	CreatedAt  time.Time           `bson:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt"`
}

func toCartDocument(c *models.Cart) (cartDocument, error) {
	doc := cartDocument{
		ID:         c.ID,
		Items:      c.Items,
		TotalPrice: models.RecomputeTotal(c.Items),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if doc.Items == nil {
		doc.Items = []models.CartItem{}
	}
	if uid, ok := c.Owner.UserID(); ok {
		doc.User = &uid
	} else if sid, ok := c.Owner.SessionID(); ok {
		doc.SessionID = sid
	} else {
		return cartDocument{}, errors.New("cart has no owner")
	}
	return doc, nil
}

func (d cartDocument) toModel() *models.Cart {
	owner := models.Guest(d.SessionID)
	if d.User != nil {
		owner = models.Registered(*d.User, models.RoleUser)
	}
	items := d.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &models.Cart{
		ID:         d.ID,
		Owner:      owner,
		Items:      items,
		TotalPrice: d.TotalPrice,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func ownerFilter(owner models.Identity) (bson.M, error) {
	if uid, ok := owner.UserID(); ok {
		return bson.M{"user": uid}, nil
	}
	if sid, ok := owner.SessionID(); ok {
		return bson.M{"sessionId": sid}, nil
	}
	return nil, apperrors.Unauthorized("No cart identity")
}

// CartRepository stores one cart per identity
type CartRepository struct {
	base
}

func NewCartRepository(db *mongo.Database, timeout time.Duration) *CartRepository {
	return &CartRepository{base: newBase(db, CartsCollection, timeout)}
}

func (r *CartRepository) FindByOwner(ctx context.Context, owner models.Identity) (*models.Cart, error) {
	filter, err := ownerFilter(owner)
	if err != nil {
		return nil, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var doc cartDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr(err, cartNotFound, "find cart")
	}
	cart := doc.toModel()
	cart.Owner = owner
	return cart, nil
}

func (r *CartRepository) Create(ctx context.Context, c *models.Cart) error {
	doc, err := toCartDocument(c)
	if err != nil {
		return apperrors.Wrap(err, "create cart")
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	_, err = r.coll.InsertOne(ctx, doc)
	return mapErr(err, cartNotFound, "create cart")
}

// Save replaces the stored cart, recomputing its total first. The write only
// applies while the stored updatedAt still equals the one c was loaded with;
// otherwise another request wrote the cart first and Save returns Conflict.
func (r *CartRepository) Save(ctx context.Context, c *models.Cart) error {
	prev := c.UpdatedAt
	c.UpdatedAt = nextStamp(prev)
	c.Recompute()
	doc, err := toCartDocument(c)
	if err != nil {
		return apperrors.Wrap(err, "save cart")
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID, "updatedAt": prev}, doc)
	if err != nil {
		c.UpdatedAt = prev
		return mapErr(err, cartNotFound, "save cart")
	}
	if res.MatchedCount == 0 {
		c.UpdatedAt = prev
		return apperrors.Conflict("Cart was modified by another request, please retry")
	}
	return nil
}

// nextStamp returns the current time at the millisecond precision MongoDB
// stores, strictly after prev.
func nextStamp(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if floor := prev.UTC().Truncate(time.Millisecond); !now.After(floor) {
		now = floor.Add(time.Millisecond)
	}
	return now
}
