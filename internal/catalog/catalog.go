// internal/catalog/catalog.go
package catalog

import (
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/api"
)

// Client is the catalog surface of the backend API: books, authors,
// categories and reviews, including the admin CRUD operations
type Client struct {
	api    *api.Client
	logger *logrus.Entry
}

// NewClient creates a catalog client
func NewClient(apiClient *api.Client, logger *logrus.Logger) *Client {
	return &Client{
		api:    apiClient,
		logger: logger.WithField("component", "catalog"),
	}
}

// Pagination describes the position of a page within a listing
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}
