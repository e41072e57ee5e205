// internal/orders/history.go
package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/api"
)

// ErrIllegalTransition indicates an admin update that would move an order
// or payment backwards, or out of a terminal status
var ErrIllegalTransition = errors.New("illegal status transition")

// Pagination describes the position of a page within the full order list
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Page is one page of orders plus its pagination metadata
type Page struct {
	Orders     []Order
	Pagination Pagination
}

// History is the read-only projection of past orders for the current
// identity, plus the admin order operations
type History struct {
	api    *api.Client
	logger *logrus.Entry
	limit  int
}

// NewHistory creates the order history projection. limit is the page size
// used for listings.
func NewHistory(client *api.Client, logger *logrus.Logger, limit int) *History {
	if limit < 1 {
		limit = 10
	}
	return &History{
		api:    client,
		logger: logger.WithField("component", "orders"),
		limit:  limit,
	}
}

type listResponse struct {
	Data       []Order     `json:"data"`
	Pagination *Pagination `json:"pagination"`
}

type singleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Order Order `json:"order"`
	} `json:"data"`
}

// Load fetches one page of the current user's orders. Missing pagination
// metadata defaults to a single page.
func (h *History) Load(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(h.limit)},
	}

	var resp listResponse
	if err := h.api.Do(ctx, http.MethodGet, "/order/my", query, nil, &resp); err != nil {
		return nil, err
	}

	return &Page{Orders: resp.Data, Pagination: normalize(resp.Pagination, page, h.limit)}, nil
}

// Get fetches a single order by id
func (h *History) Get(ctx context.Context, orderID string) (*Order, error) {
	var resp singleResponse
	if err := h.api.Do(ctx, http.MethodGet, "/order/"+orderID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data.Order, nil
}

// AdminFilter narrows the admin order listing
type AdminFilter struct {
	OrderStatus   Status
	PaymentStatus PaymentStatus
	From          string
	To            string
}

// ListAll fetches one page of all orders (admin endpoint)
func (h *History) ListAll(ctx context.Context, page int, filter AdminFilter) (*Page, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(h.limit)},
	}
	if filter.OrderStatus != "" {
		query.Set("order_status", string(filter.OrderStatus))
	}
	if filter.PaymentStatus != "" {
		query.Set("payment_status", string(filter.PaymentStatus))
	}
	if filter.From != "" {
		query.Set("from", filter.From)
	}
	if filter.To != "" {
		query.Set("to", filter.To)
	}

	var resp listResponse
	if err := h.api.Do(ctx, http.MethodGet, "/order", query, nil, &resp); err != nil {
		return nil, err
	}

	return &Page{Orders: resp.Data, Pagination: normalize(resp.Pagination, page, h.limit)}, nil
}

// UpdateRequest is an admin status change. Empty fields are left unchanged.
type UpdateRequest struct {
	OrderStatus   Status        `json:"order_status,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	Note          string        `json:"note,omitempty"`
}

// Update applies an admin status change to an order. Transitions are
// checked against the order's current statuses before any request is made,
// mirroring the forward-only rules enforced server-side.
func (h *History) Update(ctx context.Context, current *Order, req UpdateRequest) (*Order, error) {
	if req.OrderStatus != "" && !current.OrderStatus.CanTransitionTo(req.OrderStatus) {
		return nil, fmt.Errorf("%w: order %s -> %s", ErrIllegalTransition, current.OrderStatus, req.OrderStatus)
	}
	if req.PaymentStatus != "" && !current.PaymentStatus.CanTransitionTo(req.PaymentStatus) {
		return nil, fmt.Errorf("%w: payment %s -> %s", ErrIllegalTransition, current.PaymentStatus, req.PaymentStatus)
	}

	var resp singleResponse
	if err := h.api.Do(ctx, http.MethodPatch, "/order/"+current.ID, nil, req, &resp); err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{
		"order_id":       current.ID,
		"order_status":   req.OrderStatus,
		"payment_status": req.PaymentStatus,
	}).Info("Order updated")
	return &resp.Data.Order, nil
}

func normalize(p *Pagination, page, limit int) Pagination {
	if p == nil {
		return Pagination{Page: page, Limit: limit, TotalPages: 1}
	}
	normalized := *p
	if normalized.Page < 1 {
		normalized.Page = page
	}
	if normalized.TotalPages < 1 {
		normalized.TotalPages = 1
	}
	return normalized
}
