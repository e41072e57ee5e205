// internal/catalog/authors.go
package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Author is a catalog author
type Author struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// AuthorPage is one page of the author listing
type AuthorPage struct {
	Data       []Author   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// AuthorInput holds the author form fields
type AuthorInput struct {
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

// Authors lists authors with pagination
func (c *Client) Authors(ctx context.Context, page, limit int) (*AuthorPage, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var result AuthorPage
	if err := c.api.Do(ctx, http.MethodGet, "/authors", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAuthor adds an author (admin)
func (c *Client) CreateAuthor(ctx context.Context, in AuthorInput) (*Author, error) {
	var author Author
	if err := c.api.Do(ctx, http.MethodPost, "/authors", nil, in, &author); err != nil {
		return nil, err
	}
	return &author, nil
}

// UpdateAuthor modifies an author (admin)
func (c *Client) UpdateAuthor(ctx context.Context, id string, in AuthorInput) (*Author, error) {
	var author Author
	if err := c.api.Do(ctx, http.MethodPatch, "/authors/"+id, nil, in, &author); err != nil {
		return nil, err
	}
	return &author, nil
}
