// internal/catalog/reviews.go
package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Review is a user review on a book
type Review struct {
	ID        string `json:"_id"`
	BookID    string `json:"book_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ReviewPage is one page of reviews for a book
type ReviewPage struct {
	Data       []Review   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ReviewInput holds the review form fields
type ReviewInput struct {
	BookID  string `json:"book_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Reviews lists reviews for a book with pagination
func (c *Client) Reviews(ctx context.Context, bookID string, page, limit int) (*ReviewPage, error) {
	params := url.Values{"book_id": {bookID}}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var result ReviewPage
	if err := c.api.Do(ctx, http.MethodGet, "/reviews", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddReview posts a review on a book
func (c *Client) AddReview(ctx context.Context, in ReviewInput) (*Review, error) {
	var review Review
	if err := c.api.Do(ctx, http.MethodPost, "/reviews", nil, in, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview removes a review
func (c *Client) DeleteReview(ctx context.Context, reviewID string) error {
	return c.api.Do(ctx, http.MethodDelete, "/reviews/"+reviewID, nil, nil, nil)
}
