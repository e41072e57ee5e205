// internal/catalog/books.go
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Book is a catalog entry
type Book struct {
	ID         string   `json:"_id"`
	AuthorID   string   `json:"author_id"`
	Categories []string `json:"categories"`
	Title      string   `json:"book_title"`
	CoverURL   string   `json:"book_cover_url,omitempty"`
	Price      float64  `json:"price"`
	Stock      int      `json:"stock"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

// BooksQuery holds the optional listing filters
type BooksQuery struct {
	Search      string
	Page        int
	Limit       int
	AuthorIDs   string
	CategoryIDs string
	MinPrice    *float64
	MaxPrice    *float64
	Sort        string // "price" or "createdAt"
	Order       string // "asc" or "desc"
}

func (q BooksQuery) values() url.Values {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.AuthorIDs != "" {
		params.Set("authorIds", q.AuthorIDs)
	}
	if q.CategoryIDs != "" {
		params.Set("categoryIds", q.CategoryIDs)
	}
	if q.MinPrice != nil {
		params.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		params.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	return params
}

// BookPage is one page of the book listing
type BookPage struct {
	Data       []Book     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Books lists catalog books with optional search, filtering and sorting
func (c *Client) Books(ctx context.Context, query BooksQuery) (*BookPage, error) {
	var page BookPage
	if err := c.api.Do(ctx, http.MethodGet, "/books", query.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Book fetches a single book by id
func (c *Client) Book(ctx context.Context, id string) (*Book, error) {
	var book Book
	if err := c.api.Do(ctx, http.MethodGet, "/books/"+id, nil, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// BookInput holds the admin book form fields plus an optional cover image
type BookInput struct {
	Title       string
	AuthorID    string
	CategoryIDs []string
	Price       float64
	Stock       int
	Cover       io.Reader
	CoverName   string
}

func (in BookInput) fields() map[string]string {
	fields := map[string]string{
		"book_title": in.Title,
		"author_id":  in.AuthorID,
		"price":      strconv.FormatFloat(in.Price, 'f', 2, 64),
		"stock":      strconv.Itoa(in.Stock),
	}
	for i, id := range in.CategoryIDs {
		fields[fmt.Sprintf("categories[%d]", i)] = id
	}
	return fields
}

// CreateBook adds a book to the catalog (admin). The cover image travels as
// multipart form data next to the text fields.
func (c *Client) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	var book Book
	if err := c.api.DoForm(ctx, http.MethodPost, "/books", in.fields(), "book_cover", in.CoverName, in.Cover, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook modifies an existing book (admin)
func (c *Client) UpdateBook(ctx context.Context, id string, in BookInput) (*Book, error) {
	var book Book
	if err := c.api.DoForm(ctx, http.MethodPatch, "/books/"+id, in.fields(), "book_cover", in.CoverName, in.Cover, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book from the catalog (admin)
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.api.Do(ctx, http.MethodDelete, "/books/"+id, nil, nil, nil)
}
