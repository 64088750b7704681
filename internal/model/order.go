package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod identifies which gateway confirmed (or will confirm) an order.
type PaymentMethod string

const (
	PaymentMethodUnset  PaymentMethod = ""
	PaymentMethodPayPal PaymentMethod = "PayPal"
	PaymentMethodEsewa  PaymentMethod = "Esewa"
)

// Valid reports whether the method is one of the known gateways.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodPayPal || m == PaymentMethodEsewa
}

// Order represents a customer order moving through NEW -> PAID -> DELIVERED.
type Order struct {
	ID      uuid.UUID `json:"id" db:"id"`
	BuyerID uuid.UUID `json:"buyerId" db:"buyer_id"`

	Pricing Pricing `json:"pricing"`

	PaymentMethod  PaymentMethod `json:"paymentMethod" db:"payment_method"`
	IsPaid         bool          `json:"isPaid" db:"is_paid"`
	PaidAt         *time.Time    `json:"paidAt,omitempty" db:"paid_at"`
	TransactionRef *string       `json:"transactionRef,omitempty" db:"transaction_ref"`

	IsDelivered bool       `json:"isDelivered" db:"is_delivered"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`

	// CorrelationID is set only while a redirect-based payment is pending.
	CorrelationID *string `json:"-" db:"correlation_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Pricing is the order's price breakdown, fixed at creation time.
type Pricing struct {
	ItemsSubtotal float64 `json:"itemsSubtotal" db:"items_subtotal"`
	ShippingFee   float64 `json:"shippingFee" db:"shipping_fee"`
	Tax           float64 `json:"tax" db:"tax"`
	Total         float64 `json:"total" db:"total"`
}

// ConsistentTotal reports whether the stored total matches the sum of its parts.
func (p Pricing) ConsistentTotal() bool {
	const epsilon = 0.005
	diff := p.Total - (p.ItemsSubtotal + p.ShippingFee + p.Tax)
	return diff < epsilon && diff > -epsilon
}

// OrderItem is a product snapshot taken when the order was placed.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
}

// PaymentProof is the normalized confirmation payload for POST /api/orders/{id}/pay.
// Exactly one of the two shapes is expected: transactionRef+status for the
// direct-callback flow, correlationId for the redirect flow.
type PaymentProof struct {
	TransactionRef string `json:"transactionRef,omitempty"`
	Status         string `json:"status,omitempty"`
	CorrelationID  string `json:"correlationId,omitempty"`
}

// IsRedirect reports whether the proof belongs to the redirect-correlation flow.
func (p PaymentProof) IsRedirect() bool {
	return p.CorrelationID != ""
}

// PaymentUpdate carries the fields applied together when an order becomes paid.
type PaymentUpdate struct {
	Method         PaymentMethod
	TransactionRef string
	PaidAt         time.Time
}

// OrderResponse is the order view returned to buyers and admins.
type OrderResponse struct {
	Order Order        `json:"order"`
	Items []OrderItem  `json:"items"`
	Buyer *UserSummary `json:"buyer,omitempty"`
}
