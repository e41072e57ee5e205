// internal/orders/entity.go
package orders

import (
	"github.com/your-org/bookstore-storefront/internal/api"
	"github.com/your-org/bookstore-storefront/internal/cart"
)

// Status represents the order status
type Status string

const (
	StatusPlaced     Status = "placed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod is one of the fixed set of payment options
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
)

// Valid reports whether the method is one of the supported options
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCard
}

// Label returns the display name for a payment method
func (m PaymentMethod) Label() string {
	if m == PaymentCashOnDelivery {
		return "Cash on Delivery"
	}
	return "Card"
}

// statusTransitions defines the legal forward transitions for an order.
// Delivered and cancelled are terminal.
var statusTransitions = map[Status][]Status{
	StatusPlaced:     {StatusProcessing},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// paymentTransitions defines the legal forward transitions for a payment.
// Failed and refunded are terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentPaid:     {PaymentRefunded},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

// Next returns the statuses an order may legally move to
func (s Status) Next() []Status {
	return statusTransitions[s]
}

// CanTransitionTo reports whether moving to next is a legal forward step
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Next returns the payment statuses a payment may legally move to
func (s PaymentStatus) Next() []PaymentStatus {
	return paymentTransitions[s]
}

// CanTransitionTo reports whether moving to next is a legal forward step
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Badge classes per status, with a neutral fallback for statuses this
// client version does not know about.
const neutralBadge = "bg-gray-100 text-gray-600"

var statusBadges = map[Status]string{
	StatusPlaced:     "bg-yellow-100 text-yellow-700",
	StatusProcessing: "bg-blue-100 text-blue-700",
	StatusShipped:    "bg-purple-100 text-purple-700",
	StatusDelivered:  "bg-green-100 text-green-700",
	StatusCancelled:  "bg-red-100 text-red-700",
}

var paymentBadges = map[PaymentStatus]string{
	PaymentPending:  "bg-yellow-100 text-yellow-700",
	PaymentPaid:     "bg-green-100 text-green-700",
	PaymentFailed:   "bg-red-100 text-red-700",
	PaymentRefunded: "bg-blue-100 text-blue-700",
}

// Badge returns the display badge for an order status
func (s Status) Badge() string {
	if badge, ok := statusBadges[s]; ok {
		return badge
	}
	return neutralBadge
}

// Badge returns the display badge for a payment status
func (s PaymentStatus) Badge() string {
	if badge, ok := paymentBadges[s]; ok {
		return badge
	}
	return neutralBadge
}

// ShippingDetails is the delivery address collected at checkout
type ShippingDetails struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	ZipCode  string `json:"zipCode"`
	Phone    string `json:"phone"`
}

// Item is one book entry within an order
type Item struct {
	Book     api.BookRef `json:"book_id"`
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    float64     `json:"price"` // Unit price in dollars, as sent on the wire
}

// Title returns the populated book title, falling back to the name captured
// at order time
func (i Item) Title() string {
	if i.Book.Populated() {
		return i.Book.Title
	}
	return i.Name
}

// HistoryEntry records one status change on an order
type HistoryEntry struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Order is a read-only copy of a server-side order
type Order struct {
	ID            string          `json:"_id"`
	UserID        string          `json:"user_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	OrderStatus   Status          `json:"order_status"`
	Shipping      ShippingDetails `json:"shipping_details"`
	Books         []Item          `json:"books"`
	History       []HistoryEntry  `json:"order_history"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

// Total sums the order lines, in cents
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.Books {
		total += cart.CentsFromDollars(item.Price) * int64(item.Quantity)
	}
	return total
}
