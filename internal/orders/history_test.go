// internal/orders/history_test.go
package orders_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-storefront/internal/api"
	"github.com/your-org/bookstore-storefront/internal/apitest"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/orders"
	"github.com/your-org/bookstore-storefront/internal/pkg/logging"
	"github.com/your-org/bookstore-storefront/internal/pkg/tokens"
)

func newHistory(t *testing.T, server *apitest.Server, limit int) *orders.History {
	t.Helper()

	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: server.URL, Timeout: 5 * time.Second, PageLimit: limit},
		Logging: config.LoggingConfig{Level: "error"},
	}
	logger := logging.New(cfg)

	tokenStore := tokens.NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, tokenStore.Save(tokens.Pair{
		AccessToken:  apitest.AccessToken,
		RefreshToken: apitest.RefreshToken,
	}))

	return orders.NewHistory(api.NewClient(cfg, logger, tokenStore), logger, limit)
}

func seedOrders(server *apitest.Server, n int) {
	all := make([]apitest.Order, n)
	for i := range all {
		status := "placed"
		if i%2 == 1 {
			status = "delivered"
		}
		all[i] = apitest.Order{
			ID:            fmt.Sprintf("order-%d", i+1),
			UserID:        "user-1",
			PaymentMethod: "card",
			PaymentStatus: "pending",
			OrderStatus:   status,
			Books: []map[string]interface{}{
				{"book_id": "b1", "name": "Dune", "quantity": 1, "price": 12.50},
			},
			History:   []map[string]interface{}{{"status": "placed"}},
			CreatedAt: "2026-01-01T00:00:00Z",
		}
	}
	server.SeedOrders(all...)
}

func TestLoadPaginates(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	seedOrders(server, 25)

	history := newHistory(t, server, 10)
	ctx := context.Background()

	first, err := history.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first.Orders, 10)
	assert.Equal(t, 1, first.Pagination.Page)
	assert.Equal(t, 3, first.Pagination.TotalPages)
	assert.Equal(t, 25, first.Pagination.Total)
	assert.True(t, first.Pagination.HasNextPage)
	assert.False(t, first.Pagination.HasPrevPage)

	last, err := history.Load(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, last.Orders, 5)
	assert.False(t, last.Pagination.HasNextPage)
	assert.True(t, last.Pagination.HasPrevPage)

	// Page numbers below 1 clamp to the first page
	clamped, err := history.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, first.Orders[0].ID, clamped.Orders[0].ID)
}

func TestGetOrder(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	seedOrders(server, 3)

	history := newHistory(t, server, 10)

	order, err := history.Get(context.Background(), "order-2")
	require.NoError(t, err)
	assert.Equal(t, "order-2", order.ID)
	assert.Equal(t, orders.PaymentCard, order.PaymentMethod)
	require.Len(t, order.Books, 1)
	assert.Equal(t, "Dune", order.Books[0].Title())
	assert.Equal(t, int64(1250), order.Total())
}

func TestGetMissingOrderFails(t *testing.T) {
	server := apitest.New()
	defer server.Close()

	history := newHistory(t, server, 10)

	_, err := history.Get(context.Background(), "nope")
	require.Error(t, err)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
}

func TestListAllFilters(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	seedOrders(server, 10) // half placed, half delivered

	history := newHistory(t, server, 20)

	page, err := history.ListAll(context.Background(), 1, orders.AdminFilter{OrderStatus: orders.StatusDelivered})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 5)
	for _, order := range page.Orders {
		assert.Equal(t, orders.StatusDelivered, order.OrderStatus)
	}
}

func TestUpdateRejectsIllegalTransitionLocally(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	seedOrders(server, 1)

	history := newHistory(t, server, 10)
	ctx := context.Background()

	order, err := history.Get(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, orders.StatusPlaced, order.OrderStatus)

	// placed cannot jump straight to delivered; no request should be made
	server.FailNext(500, nil) // would trip if a request went out
	_, err = history.Update(ctx, order, orders.UpdateRequest{OrderStatus: orders.StatusDelivered})
	require.ErrorIs(t, err, orders.ErrIllegalTransition)

	_, err = history.Update(ctx, order, orders.UpdateRequest{PaymentStatus: orders.PaymentRefunded})
	require.ErrorIs(t, err, orders.ErrIllegalTransition)
}

func TestUpdateAppliesLegalTransition(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	seedOrders(server, 1)

	history := newHistory(t, server, 10)
	ctx := context.Background()

	order, err := history.Get(ctx, "order-1")
	require.NoError(t, err)

	updated, err := history.Update(ctx, order, orders.UpdateRequest{
		OrderStatus:   orders.StatusProcessing,
		PaymentStatus: orders.PaymentPaid,
		Note:          "picked up by warehouse",
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusProcessing, updated.OrderStatus)
	assert.Equal(t, orders.PaymentPaid, updated.PaymentStatus)

	// The change is recorded in the order's history trail
	require.NotEmpty(t, updated.History)
	last := updated.History[len(updated.History)-1]
	assert.Equal(t, "processing", last.Status)
	assert.Equal(t, "picked up by warehouse", last.Note)
}

func TestStatusTransitions(t *testing.T) {
	assert.Equal(t, []orders.Status{orders.StatusProcessing}, orders.StatusPlaced.Next())
	assert.ElementsMatch(t, []orders.Status{orders.StatusShipped, orders.StatusCancelled}, orders.StatusProcessing.Next())
	assert.Equal(t, []orders.Status{orders.StatusDelivered}, orders.StatusShipped.Next())
	assert.Empty(t, orders.StatusDelivered.Next())
	assert.Empty(t, orders.StatusCancelled.Next())

	assert.True(t, orders.StatusShipped.CanTransitionTo(orders.StatusDelivered))
	assert.False(t, orders.StatusShipped.CanTransitionTo(orders.StatusPlaced))
	assert.False(t, orders.StatusDelivered.CanTransitionTo(orders.StatusShipped))

	assert.ElementsMatch(t, []orders.PaymentStatus{orders.PaymentPaid, orders.PaymentFailed}, orders.PaymentPending.Next())
	assert.Equal(t, []orders.PaymentStatus{orders.PaymentRefunded}, orders.PaymentPaid.Next())
	assert.Empty(t, orders.PaymentFailed.Next())
	assert.Empty(t, orders.PaymentRefunded.Next())
}

func TestBadgesFallBackToNeutral(t *testing.T) {
	assert.Equal(t, "bg-green-100 text-green-700", orders.StatusDelivered.Badge())
	assert.Equal(t, "bg-red-100 text-red-700", orders.PaymentFailed.Badge())

	// Statuses this client does not know about still render
	assert.Equal(t, "bg-gray-100 text-gray-600", orders.Status("on_hold").Badge())
	assert.Equal(t, "bg-gray-100 text-gray-600", orders.PaymentStatus("disputed").Badge())
}

func TestItemTitleFallsBackToName(t *testing.T) {
	populated := orders.Item{Book: api.BookRef{ID: "b1", Title: "Dune"}, Name: "stale name"}
	assert.Equal(t, "Dune", populated.Title())

	bare := orders.Item{Book: api.BookRef{ID: "b1"}, Name: "Dune (at order time)"}
	assert.Equal(t, "Dune (at order time)", bare.Title())
}
