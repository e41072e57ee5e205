// internal/cart/store.go
package cart

import (
	"context"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/api"
)

// Store owns the local cart snapshot and keeps it synchronized with the
// backend. The server is the source of truth: every successful mutation
// replaces the whole snapshot with the server's response, there is no
// optimistic merge. On failure the snapshot is left untouched and the error
// is returned to the caller.
//
// Mutations are independent requests; the store does not serialize them.
// Rapid concurrent mutations therefore resolve last-response-wins. What the
// store does guarantee is that readers always see a complete snapshot,
// never a partially-updated one.
type Store struct {
	mu       sync.RWMutex
	api      *api.Client
	logger   *logrus.Entry
	snapshot Snapshot
	subs     []func(Snapshot)
}

// NewStore creates an empty cart store
func NewStore(client *api.Client, logger *logrus.Logger) *Store {
	return &Store{
		api:      client,
		logger:   logger.WithField("component", "cart"),
		snapshot: buildSnapshot(nil),
	}
}

// Snapshot returns a copy of the current cart state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.snapshot
	snapshot.Lines = make([]Line, len(s.snapshot.Lines))
	copy(snapshot.Lines, s.snapshot.Lines)
	return snapshot
}

// Subscribe registers a callback invoked after every snapshot replacement
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Wire types. Cart amounts travel as dollars; the backend sends book
// references either as bare ids or populated summaries.

type wireItem struct {
	ID       string      `json:"_id"`
	Book     api.BookRef `json:"book_id"`
	Quantity int         `json:"quantity"`
	Price    float64     `json:"price"`
}

type wireCart struct {
	ID     string     `json:"_id"`
	UserID string     `json:"user_id"`
	Items  []wireItem `json:"items"`
	Total  float64    `json:"total"`
}

type loadResponse struct {
	Status string `json:"status"`
	Data   struct {
		Items []wireItem `json:"data"`
		Total float64    `json:"total"`
	} `json:"data"`
}

type mutationResponse struct {
	Status string `json:"status"`
	Data   struct {
		Cart wireCart `json:"cart"`
	} `json:"data"`
}

func linesFromWire(items []wireItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		title := item.Book.Title
		if title == "" {
			title = "Unknown Title"
		}
		lines[i] = Line{
			LineID:    item.ID,
			BookID:    item.Book.ID,
			Title:     title,
			CoverURL:  item.Book.CoverURL,
			UnitPrice: CentsFromDollars(item.Price),
			Quantity:  item.Quantity,
		}
	}
	return lines
}

// Load fetches the authoritative cart state. On failure the last-known
// snapshot stays in place; a transient error never empties the cart view.
func (s *Store) Load(ctx context.Context) error {
	var resp loadResponse
	if err := s.api.Do(ctx, http.MethodGet, "/cart", nil, nil, &resp); err != nil {
		s.logger.WithError(err).Warn("Cart load failed, keeping last-known snapshot")
		return err
	}

	s.replace(buildSnapshot(linesFromWire(resp.Data.Items)))
	return nil
}

// AddLine adds a book to the cart at its current listed price
func (s *Store) AddLine(ctx context.Context, bookID string, quantity int, unitPrice int64) error {
	body := map[string]interface{}{
		"bookId":   bookID,
		"quantity": quantity,
		"price":    DollarsFromCents(unitPrice),
	}
	return s.mutate(ctx, http.MethodPost, "/cart/items", body)
}

// SetQuantity sets a line's quantity directly. A quantity of zero removes
// the line server-side.
func (s *Store) SetQuantity(ctx context.Context, bookID string, quantity int) error {
	body := map[string]interface{}{"quantity": quantity}
	return s.mutate(ctx, http.MethodPatch, "/cart/items/"+bookID, body)
}

// Increase raises a line's quantity by step (default 1)
func (s *Store) Increase(ctx context.Context, bookID string, step int) error {
	if step < 1 {
		step = 1
	}
	body := map[string]interface{}{"step": step}
	return s.mutate(ctx, http.MethodPatch, "/cart/items/"+bookID+"/increase", body)
}

// Decrease lowers a line's quantity by step (default 1). The backend
// removes the line when the quantity would drop to zero.
func (s *Store) Decrease(ctx context.Context, bookID string, step int) error {
	if step < 1 {
		step = 1
	}
	body := map[string]interface{}{"step": step}
	return s.mutate(ctx, http.MethodPatch, "/cart/items/"+bookID+"/decrease", body)
}

// Remove deletes a line from the cart
func (s *Store) Remove(ctx context.Context, bookID string) error {
	return s.mutate(ctx, http.MethodDelete, "/cart/items/"+bookID, nil)
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, http.MethodDelete, "/cart", nil)
}

func (s *Store) mutate(ctx context.Context, method, path string, body interface{}) error {
	var resp mutationResponse
	if err := s.api.Do(ctx, method, path, nil, body, &resp); err != nil {
		return err
	}

	s.replace(buildSnapshot(linesFromWire(resp.Data.Cart.Items)))
	return nil
}

// replace swaps in a new snapshot atomically and notifies subscribers
func (s *Store) replace(snapshot Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	subs := make([]func(Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
