package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// ShippingAddress represents the delivery address of an order
type ShippingAddress struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
	Country string `bson:"country" json:"country"`
}

// MissingFields lists the JSON names of blank fields, in declaration order.
func (a ShippingAddress) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// OrderItem is a snapshot of a cart line taken when the order is placed.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Size     float64            `bson:"size" json:"size"`
	Price    float64            `bson:"price" json:"price"`
	Image    string             `bson:"image" json:"image"`
}

// Order represents a placed order
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const base36Digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns ORD-<unix millis in base36>-<5 random base36 chars>.
func NewOrderNumber(now time.Time) string {
	id := uuid.Must(uuid.NewV4())
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = base36Digits[int(id[i])%len(base36Digits)]
	}
	prefix := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "ORD-" + prefix + "-" + string(suffix)
}

// ApplyStatus sets the supplied statuses and stamps deliveredAt/paidAt.
// Any enumerated value may follow any other.
func (o *Order) ApplyStatus(orderStatus *OrderStatus, paymentStatus *PaymentStatus, now time.Time) {
	if orderStatus != nil {
		o.OrderStatus = *orderStatus
		if *orderStatus == OrderDelivered {
			t := now
			o.DeliveredAt = &t
		}
	}
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
		if *paymentStatus == PaymentCompleted {
			t := now
			o.PaidAt = &t
		}
	}
	o.UpdatedAt = now
}
