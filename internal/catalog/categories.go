// internal/catalog/categories.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ErrCategoryInUse indicates a category delete was rejected because books
// still reference it. The backend reports this as a bare conflict, so the
// caller only gets a "might be in use" level of detail.
var ErrCategoryInUse = errors.New("category might be in use")

// Category groups books in the catalog
type Category struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type categoryListResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       []Category  `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type categoryResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    Category `json:"data"`
}

// CategoryPage is one page of the category listing
type CategoryPage struct {
	Data       []Category
	Pagination Pagination
}

// Categories lists categories with pagination
func (c *Client) Categories(ctx context.Context, page, limit int) (*CategoryPage, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp categoryListResponse
	if err := c.api.Do(ctx, http.MethodGet, "/categories", params, nil, &resp); err != nil {
		return nil, err
	}

	result := &CategoryPage{Data: resp.Data, Pagination: Pagination{Page: page, Limit: limit, TotalPages: 1}}
	if resp.Pagination != nil {
		result.Pagination = *resp.Pagination
	}
	return result, nil
}

// CreateCategory adds a category (admin)
func (c *Client) CreateCategory(ctx context.Context, name string) (*Category, error) {
	body := map[string]string{"name": name}

	var resp categoryResponse
	if err := c.api.Do(ctx, http.MethodPost, "/categories", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateCategory renames a category (admin)
func (c *Client) UpdateCategory(ctx context.Context, id, name string) (*Category, error) {
	body := map[string]string{"name": name}

	var resp categoryResponse
	if err := c.api.Do(ctx, http.MethodPut, "/categories/"+id, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// DeleteCategory removes a category (admin). A rejected delete surfaces as
// ErrCategoryInUse since the usual cause is books still assigned to it.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := c.api.Do(ctx, http.MethodDelete, "/categories/"+id, nil, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrCategoryInUse, err)
	}
	return nil
}
