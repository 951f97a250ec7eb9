package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents one (product, size) line in the cart
type CartItem struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Size     float64            `bson:"size" json:"size"`
	Price    float64            `bson:"price" json:"price"`
}

// Cart represents the shopping cart of a user or guest session.
// TotalPrice is derived from Items by RecomputeTotal and is never set directly.
type Cart struct {
	ID         primitive.ObjectID `json:"_id"`
	Owner      Identity           `json:"-"`
	Items      []CartItem         `json:"items"`
	TotalPrice float64            `json:"totalPrice"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// NewCart returns an empty cart for owner.
func NewCart(owner Identity, now time.Time) *Cart {
	return &Cart{
		ID:        primitive.NewObjectID(),
		Owner:     owner,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecomputeTotal returns the sum of quantity x price over items, rounded to cents.
func RecomputeTotal(items []CartItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Recompute refreshes the derived total.
func (c *Cart) Recompute() {
	c.TotalPrice = RecomputeTotal(c.Items)
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// LineIndex returns the index of the (product, size) line or -1.
func (c *Cart) LineIndex(product primitive.ObjectID, size float64) int {
	for i, it := range c.Items {
		if it.Product == product && it.Size == size {
			return i
		}
	}
	return -1
}

// ItemIndex returns the index of the line with itemID or -1.
func (c *Cart) ItemIndex(itemID primitive.ObjectID) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// QuantityOf sums the quantity of product across all sizes, skipping the line excluded.
func (c *Cart) QuantityOf(product primitive.ObjectID, excluded primitive.ObjectID) int {
	n := 0
	for _, it := range c.Items {
		if it.Product == product && it.ID != excluded {
			n += it.Quantity
		}
	}
	return n
}

// AddLine merges quantity into an existing (product, size) line or appends
// a new line priced at price.
func (c *Cart) AddLine(product primitive.ObjectID, size float64, quantity int, price float64) {
	if i := c.LineIndex(product, size); i >= 0 {
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, CartItem{
			ID:       primitive.NewObjectID(),
			Product:  product,
			Quantity: quantity,
			Size:     size,
			Price:    price,
		})
	}
	c.Recompute()
}

// RemoveItem drops the line with itemID. Unknown ids are ignored.
func (c *Cart) RemoveItem(itemID primitive.ObjectID) {
	if i := c.ItemIndex(itemID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
	c.Recompute()
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recompute()
}

// ProductQuantities aggregates line quantities per product, in first-seen order.
func (c *Cart) ProductQuantities() ([]primitive.ObjectID, map[primitive.ObjectID]int) {
	var order []primitive.ObjectID
	qty := make(map[primitive.ObjectID]int)
	for _, it := range c.Items {
		if _, ok := qty[it.Product]; !ok {
			order = append(order, it.Product)
		}
		qty[it.Product] += it.Quantity
	}
	return order, qty
}
