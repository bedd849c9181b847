package models

import "time"

// PaymentStatus is the payment state of an order. Paid is terminal.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// Address is the shipping address copied onto an order at checkout.
type Address struct {
	Line1      string `json:"line1" bson:"line1" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	PostalCode string `json:"postal_code" bson:"postal_code" validate:"required"`
	Country    string `json:"country" bson:"country" validate:"required"`
}

// Buyer is a snapshot of the requester taken when the order is placed.
// Later profile edits never reach it.
type Buyer struct {
	Name    string  `json:"name" bson:"name"`
	Email   string  `json:"email" bson:"email"`
	Address Address `json:"address" bson:"address"`
}

// OrderItem represents a single line within an order.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	UnitPrice float64 `json:"unitPrice" bson:"unitPrice"` // Price at the time of order
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// PaymentProof is what either confirmation path hands to the store once the
// payment has been proven.
type PaymentProof struct {
	PaymentID string
	PaidAt    time.Time
}

// Order represents a customer order and doubles as the payment receipt.
type Order struct {
	ID             string        `json:"id" bson:"_id"`
	UserID         string        `json:"userId" bson:"userId"`
	Buyer          Buyer         `json:"buyer" bson:"buyer"`
	Items          []OrderItem   `json:"items" bson:"items"`
	TotalPrice     float64       `json:"totalPrice" bson:"totalPrice"`
	Amount         int64         `json:"amount" bson:"amount"` // minor units charged by the gateway
	Currency       string        `json:"currency" bson:"currency"`
	PaymentStatus  PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	GatewayOrderID string        `json:"gatewayOrderId" bson:"gatewayOrderId"`
	PaymentID      string        `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	PaidAt         *time.Time    `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// IsPaid reports whether the order reached the terminal Paid state.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid
}

// Settle applies the Pending -> Paid transition. It returns false and leaves
// the order untouched when the order is already paid.
func (o *Order) Settle(proof PaymentProof) bool {
	if o.IsPaid() {
		return false
	}
	paidAt := proof.PaidAt
	o.PaymentStatus = PaymentPaid
	o.PaymentID = proof.PaymentID
	o.PaidAt = &paidAt
	o.UpdatedAt = proof.PaidAt
	return true
}

// OwnedBy reports whether the requester placed this order.
func (o *Order) OwnedBy(email string) bool {
	return email != "" && o.Buyer.Email == email
}
