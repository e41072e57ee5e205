// internal/checkout/wizard.go
package checkout

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/api"
	"github.com/your-org/bookstore-storefront/internal/cart"
	"github.com/your-org/bookstore-storefront/internal/orders"
)

// State identifies the current step of the placement wizard
type State string

const (
	StateEnteringShipping State = "entering_shipping"
	StateEnteringPayment  State = "entering_payment"
	StateSubmitting       State = "submitting"
	StatePlaced           State = "placed"
	StateFailed           State = "failed"
)

// Local phone numbers start with a 010/011/012 prefix followed by 8 digits;
// postal codes are numeric.
var (
	phonePattern = regexp.MustCompile(`^(010|011|012)\d{8}$`)
	zipPattern   = regexp.MustCompile(`^\d+$`)
)

// ValidateShipping checks the shipping form. An empty result means the form
// passes; otherwise each entry names the offending field.
func ValidateShipping(details orders.ShippingDetails) []api.FieldError {
	var errs []api.FieldError

	required := []struct {
		field string
		value string
	}{
		{"fullName", details.FullName},
		{"street", details.Street},
		{"city", details.City},
		{"state", details.State},
		{"country", details.Country},
		{"zipCode", details.ZipCode},
		{"phone", details.Phone},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, api.FieldError{Field: f.field, Message: "This field is required."})
		}
	}

	if details.Phone != "" && !phonePattern.MatchString(details.Phone) {
		errs = append(errs, api.FieldError{Field: "phone", Message: "Phone must start with 010, 011 or 012 followed by 8 digits."})
	}
	if details.ZipCode != "" && !zipPattern.MatchString(details.ZipCode) {
		errs = append(errs, api.FieldError{Field: "zipCode", Message: "Postal code must be numeric."})
	}
	return errs
}

type placeOrderRequest struct {
	PaymentMethod   orders.PaymentMethod   `json:"payment_method"`
	ShippingDetails orders.ShippingDetails `json:"shipping_details"`
}

type placeOrderResponse struct {
	Status string `json:"status"`
	Data   struct {
		Order orders.Order `json:"order"`
	} `json:"data"`
}

// Wizard is the two-phase order placement flow: shipping, then payment,
// then a single submission. After a failed submission the wizard stays on
// the payment step and the user may retry. A retry after an ambiguous
// failure (say, a timeout the server actually processed) can create a
// duplicate order; the protocol carries no idempotency key, so the client
// cannot guard against that.
type Wizard struct {
	mu       sync.Mutex
	api      *api.Client
	cart     *cart.Store
	logger   *logrus.Entry
	state    State
	shipping orders.ShippingDetails
	payment  orders.PaymentMethod
	orderID  string
}

// NewWizard starts a fresh wizard on the shipping step
func NewWizard(client *api.Client, cartStore *cart.Store, logger *logrus.Logger) *Wizard {
	return &Wizard{
		api:     client,
		cart:    cartStore,
		logger:  logger.WithField("component", "checkout"),
		state:   StateEnteringShipping,
		payment: orders.PaymentCashOnDelivery,
	}
}

// State returns the current wizard step
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Shipping returns the shipping details entered so far
func (w *Wizard) Shipping() orders.ShippingDetails {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shipping
}

// PaymentMethod returns the currently selected payment method
func (w *Wizard) PaymentMethod() orders.PaymentMethod {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.payment
}

// OrderID returns the id of the placed order, set once the wizard reaches
// the placed state
func (w *Wizard) OrderID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.orderID
}

// SubmitShipping validates the shipping form and, when it passes, advances
// to the payment step. Field errors keep the wizard on the shipping step.
func (w *Wizard) SubmitShipping(details orders.ShippingDetails) []api.FieldError {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateEnteringShipping {
		return []api.FieldError{{Message: fmt.Sprintf("cannot edit shipping in state %s", w.state)}}
	}

	if errs := ValidateShipping(details); len(errs) > 0 {
		return errs
	}

	w.shipping = details
	w.state = StateEnteringPayment
	return nil
}

// Back returns from the payment step to the shipping step
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateEnteringPayment && w.state != StateFailed {
		return fmt.Errorf("cannot go back from state %s", w.state)
	}
	w.state = StateEnteringShipping
	return nil
}

// SelectPayment picks one of the fixed payment methods
func (w *Wizard) SelectPayment(method orders.PaymentMethod) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateEnteringPayment && w.state != StateFailed {
		return fmt.Errorf("cannot select payment in state %s", w.state)
	}
	if !method.Valid() {
		return fmt.Errorf("unsupported payment method: %s", method)
	}
	w.payment = method
	return nil
}

// Submit sends the order placement request. On success the wizard reaches
// the placed state and the cart store is reloaded, since the backend clears
// the cart when the order is created. On failure the wizard moves to failed,
// which still permits another Submit.
func (w *Wizard) Submit(ctx context.Context) (*orders.Order, error) {
	w.mu.Lock()
	if w.state != StateEnteringPayment && w.state != StateFailed {
		state := w.state
		w.mu.Unlock()
		return nil, fmt.Errorf("cannot submit in state %s", state)
	}
	req := placeOrderRequest{
		PaymentMethod:   w.payment,
		ShippingDetails: w.shipping,
	}
	w.state = StateSubmitting
	w.mu.Unlock()

	var resp placeOrderResponse
	if err := w.api.Do(ctx, http.MethodPost, "/order", nil, req, &resp); err != nil {
		w.mu.Lock()
		w.state = StateFailed
		w.mu.Unlock()
		w.logger.WithError(err).Warn("Order placement failed")
		return nil, err
	}

	placed := resp.Data.Order

	w.mu.Lock()
	w.state = StatePlaced
	w.orderID = placed.ID
	w.mu.Unlock()

	w.logger.WithField("order_id", placed.ID).Info("Order placed")

	// The backend empties the cart as part of order creation, so the local
	// snapshot must be re-synchronized rather than assumed empty.
	if err := w.cart.Load(ctx); err != nil {
		w.logger.WithError(err).Warn("Cart reload after order placement failed")
	}

	return &placed, nil
}
