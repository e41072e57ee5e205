// internal/apitest/server.go
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Fixed credentials and tokens accepted by the fake backend
const (
	Email        = "reader@example.com"
	Password     = "secret123"
	AccessToken  = "test-access-token"
	RefreshToken = "test-refresh-token"
)

// CartItem is a cart line as stored by the fake backend
type CartItem struct {
	ID       string
	BookID   string
	Title    string
	Quantity int
	Price    float64 // Dollars, as on the wire
}

// Order is an order as stored by the fake backend
type Order struct {
	ID            string                   `json:"_id"`
	UserID        string                   `json:"user_id"`
	PaymentMethod string                   `json:"payment_method"`
	PaymentStatus string                   `json:"payment_status"`
	OrderStatus   string                   `json:"order_status"`
	Shipping      map[string]interface{}   `json:"shipping_details"`
	Books         []map[string]interface{} `json:"books"`
	History       []map[string]interface{} `json:"order_history"`
	CreatedAt     string                   `json:"createdAt"`
	UpdatedAt     string                   `json:"updatedAt"`
}

// Server is an in-memory stand-in for the bookstore backend API. It speaks
// the same envelopes as the real service and keeps just enough state for
// the stores to exercise their contracts against it.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	Cart      []CartItem
	Orders    []Order
	RequireAuth bool

	// Failure injection: when FailStatus is non-zero the next request gets
	// that status with FailBody, then the injection resets.
	FailStatus int
	FailBody   gin.H

	// Request recording for interceptor assertions
	LastAuthHeader string
	LastRequestID  string

	// Categories marked in-use reject deletion with a conflict
	InUseCategories map[string]bool
}

// New starts a fake backend. Close it with s.Close().
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		RequireAuth:     true,
		InUseCategories: map[string]bool{},
	}

	router := gin.New()
	router.Use(s.record)

	router.POST("/auth/login", s.login)
	router.POST("/auth/register", s.register)
	router.POST("/auth/logout", s.ok)
	router.POST("/auth/refresh", s.refresh)
	router.GET("/auth/verify", s.ok)
	router.POST("/auth/forget-password", s.ok)
	router.POST("/auth/reset-password", s.ok)
	router.GET("/profile", s.auth(s.profile))

	router.GET("/cart", s.auth(s.getCart))
	router.POST("/cart/items", s.auth(s.addCartItem))
	router.PATCH("/cart/items/:bookId", s.auth(s.setCartQuantity))
	router.PATCH("/cart/items/:bookId/increase", s.auth(s.stepCart(+1)))
	router.PATCH("/cart/items/:bookId/decrease", s.auth(s.stepCart(-1)))
	router.DELETE("/cart/items/:bookId", s.auth(s.removeCartItem))
	router.DELETE("/cart", s.auth(s.clearCart))

	router.POST("/order", s.auth(s.placeOrder))
	router.GET("/order/my", s.auth(s.myOrders))
	router.GET("/order", s.auth(s.allOrders))
	router.GET("/order/:id", s.auth(s.getOrder))
	router.PATCH("/order/:id", s.auth(s.updateOrder))

	router.GET("/books", s.listBooks)
	router.GET("/books/:id", s.getBook)
	router.POST("/books", s.auth(s.createBook))
	router.PATCH("/books/:id", s.auth(s.updateBook))
	router.DELETE("/books/:id", s.auth(s.ok))

	router.GET("/authors", s.listAuthors)
	router.POST("/authors", s.auth(s.createAuthor))
	router.PATCH("/authors/:id", s.auth(s.updateAuthor))

	router.GET("/categories", s.listCategories)
	router.POST("/categories", s.auth(s.createCategory))
	router.PUT("/categories/:id", s.auth(s.updateCategory))
	router.DELETE("/categories/:id", s.auth(s.deleteCategory))

	router.GET("/reviews", s.listReviews)
	router.POST("/reviews", s.auth(s.addReview))
	router.DELETE("/reviews/:id", s.auth(s.ok))

	s.Server = httptest.NewServer(router)
	return s
}

// SeedCart replaces the backend cart contents
func (s *Server) SeedCart(items ...CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cart = append([]CartItem(nil), items...)
}

// SeedOrders replaces the backend order list
func (s *Server) SeedOrders(orders ...Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Orders = append([]Order(nil), orders...)
}

// FailNext makes the next request fail with the given status and body
func (s *Server) FailNext(status int, body gin.H) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailStatus = status
	s.FailBody = body
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.LastAuthHeader = c.GetHeader("Authorization")
	s.LastRequestID = c.GetHeader("X-Request-ID")
	failStatus, failBody := s.FailStatus, s.FailBody
	s.FailStatus, s.FailBody = 0, nil
	s.mu.Unlock()

	if failStatus != 0 {
		c.AbortWithStatusJSON(failStatus, failBody)
		return
	}
	c.Next()
}

func (s *Server) auth(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		required := s.RequireAuth
		s.mu.Unlock()

		if required && c.GetHeader("Authorization") != "Bearer "+AccessToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		handler(c)
	}
}

func (s *Server) ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Auth handlers

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email != Email || req.Password != Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  AccessToken,
		"refresh_token": RefreshToken,
	})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}
	if req.Email == Email {
		c.JSON(http.StatusConflict, gin.H{"details": "Email already used"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success"})
}

func (s *Server) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken != RefreshToken {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": AccessToken})
}

func (s *Server) profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"email":     Email,
		"firstname": "Avid",
		"lastname":  "Reader",
		"role":      "user",
		"address":   gin.H{"city": "Cairo", "country": "EG"},
	})
}

// Cart handlers

func (s *Server) wireItems() []gin.H {
	items := make([]gin.H, len(s.Cart))
	for i, item := range s.Cart {
		items[i] = gin.H{
			"_id": item.ID,
			"book_id": gin.H{
				"_id":        item.BookID,
				"book_title": item.Title,
			},
			"quantity": item.Quantity,
			"price":    item.Price,
		}
	}
	return items
}

func (s *Server) cartTotal() float64 {
	var total float64
	for _, item := range s.Cart {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (s *Server) respondCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"cart": gin.H{
				"_id":     "cart-1",
				"user_id": "user-1",
				"items":   s.wireItems(),
				"total":   s.cartTotal(),
			},
		},
	})
}

func (s *Server) getCart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"data":  s.wireItems(),
			"total": s.cartTotal(),
		},
	})
}

func (s *Server) addCartItem(c *gin.Context) {
	var req struct {
		BookID   string  `json:"bookId"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == "" || req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Cart {
		if s.Cart[i].BookID == req.BookID {
			s.Cart[i].Quantity += req.Quantity
			s.respondCart(c)
			return
		}
	}
	s.Cart = append(s.Cart, CartItem{
		ID:       uuid.New().String(),
		BookID:   req.BookID,
		Title:    "Book " + req.BookID,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	s.respondCart(c)
}

func (s *Server) setCartQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyQuantity(c.Param("bookId"), req.Quantity)
	s.respondCart(c)
}

func (s *Server) stepCart(direction int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Step int `json:"step"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Step < 1 {
			req.Step = 1
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		bookID := c.Param("bookId")
		for i := range s.Cart {
			if s.Cart[i].BookID == bookID {
				s.applyQuantity(bookID, s.Cart[i].Quantity+direction*req.Step)
				break
			}
		}
		s.respondCart(c)
	}
}

func (s *Server) applyQuantity(bookID string, quantity int) {
	for i := range s.Cart {
		if s.Cart[i].BookID == bookID {
			if quantity < 1 {
				s.Cart = append(s.Cart[:i], s.Cart[i+1:]...)
			} else {
				s.Cart[i].Quantity = quantity
			}
			return
		}
	}
}

func (s *Server) removeCartItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyQuantity(c.Param("bookId"), 0)
	s.respondCart(c)
}

func (s *Server) clearCart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cart = nil
	s.respondCart(c)
}

// Order handlers

func (s *Server) placeOrder(c *gin.Context) {
	var req struct {
		PaymentMethod   string                 `json:"payment_method"`
		ShippingDetails map[string]interface{} `json:"shipping_details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PaymentMethod == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Cart) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
		return
	}

	books := make([]map[string]interface{}, len(s.Cart))
	for i, item := range s.Cart {
		books[i] = map[string]interface{}{
			"book_id":  item.BookID,
			"name":     item.Title,
			"quantity": item.Quantity,
			"price":    item.Price,
		}
	}

	order := Order{
		ID:            fmt.Sprintf("order-%d", len(s.Orders)+1),
		UserID:        "user-1",
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: "pending",
		OrderStatus:   "placed",
		Shipping:      req.ShippingDetails,
		Books:         books,
		History:       []map[string]interface{}{{"status": "placed"}},
		CreatedAt:     "2026-01-01T00:00:00Z",
		UpdatedAt:     "2026-01-01T00:00:00Z",
	}
	s.Orders = append(s.Orders, order)

	// Order creation empties the cart server-side
	s.Cart = nil

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"order": order},
	})
}

func (s *Server) pageOf(c *gin.Context, all []Order) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	totalPages := (len(all) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": all[start:end],
		"pagination": gin.H{
			"total":       len(all),
			"page":        page,
			"limit":       limit,
			"totalPages":  totalPages,
			"hasNextPage": page < totalPages,
			"hasPrevPage": page > 1,
		},
	})
}

func (s *Server) myOrders(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageOf(c, s.Orders)
}

func (s *Server) allOrders(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := c.Query("order_status")
	payment := c.Query("payment_status")
	filtered := make([]Order, 0, len(s.Orders))
	for _, order := range s.Orders {
		if status != "" && order.OrderStatus != status {
			continue
		}
		if payment != "" && order.PaymentStatus != payment {
			continue
		}
		filtered = append(filtered, order)
	}
	s.pageOf(c, filtered)
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.Orders {
		if order.ID == c.Param("id") {
			c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"order": order}})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
}

func (s *Server) updateOrder(c *gin.Context) {
	var req struct {
		OrderStatus   string `json:"order_status"`
		PaymentStatus string `json:"payment_status"`
		Note          string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Orders {
		if s.Orders[i].ID != c.Param("id") {
			continue
		}
		if req.OrderStatus != "" {
			s.Orders[i].OrderStatus = req.OrderStatus
			s.Orders[i].History = append(s.Orders[i].History, map[string]interface{}{
				"status": req.OrderStatus,
				"note":   req.Note,
			})
		}
		if req.PaymentStatus != "" {
			s.Orders[i].PaymentStatus = req.PaymentStatus
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"order": s.Orders[i]}})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
}

// Catalog handlers. The catalog is a static fixture; only the shapes and
// the pagination echo matter to the client tests.

func paginationEcho(c *gin.Context, total int) gin.H {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return gin.H{
		"total":       total,
		"page":        page,
		"limit":       limit,
		"totalPages":  totalPages,
		"hasNextPage": page < totalPages,
		"hasPrevPage": page > 1,
	}
}

func fixtureBook(id string) gin.H {
	return gin.H{
		"_id":        id,
		"author_id":  "author-1",
		"categories": []string{"cat-1"},
		"book_title": "Book " + id,
		"price":      19.99,
		"stock":      5,
	}
}

func (s *Server) listBooks(c *gin.Context) {
	books := []gin.H{fixtureBook("b1"), fixtureBook("b2")}
	if search := c.Query("search"); search != "" {
		books = books[:1]
	}
	c.JSON(http.StatusOK, gin.H{"data": books, "pagination": paginationEcho(c, len(books))})
}

func (s *Server) getBook(c *gin.Context) {
	c.JSON(http.StatusOK, fixtureBook(c.Param("id")))
}

func (s *Server) createBook(c *gin.Context) {
	title := c.PostForm("book_title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "book_title is required"})
		return
	}
	book := fixtureBook("b-new")
	book["book_title"] = title
	if _, header, err := c.Request.FormFile("book_cover"); err == nil {
		book["book_cover_url"] = "/covers/" + header.Filename
	}
	c.JSON(http.StatusCreated, book)
}

func (s *Server) updateBook(c *gin.Context) {
	book := fixtureBook(c.Param("id"))
	if title := c.PostForm("book_title"); title != "" {
		book["book_title"] = title
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) listAuthors(c *gin.Context) {
	authors := []gin.H{
		{"_id": "author-1", "name": "First Author"},
		{"_id": "author-2", "name": "Second Author", "bio": "Writes a lot"},
	}
	c.JSON(http.StatusOK, gin.H{"data": authors, "pagination": paginationEcho(c, len(authors))})
}

func (s *Server) createAuthor(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"_id": "author-new", "name": req.Name, "bio": req.Bio})
}

func (s *Server) updateAuthor(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"_id": c.Param("id"), "name": req.Name, "bio": req.Bio})
}

// Category handlers

func (s *Server) listCategories(c *gin.Context) {
	categories := []gin.H{
		{"_id": "cat-1", "name": "Fiction"},
		{"_id": "cat-2", "name": "History"},
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       categories,
		"pagination": paginationEcho(c, len(categories)),
	})
}

func (s *Server) createCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"_id": "cat-new", "name": req.Name}})
}

func (s *Server) updateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"_id": c.Param("id"), "name": req.Name}})
}

func (s *Server) deleteCategory(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InUseCategories[c.Param("id")] {
		c.JSON(http.StatusConflict, gin.H{"message": "Category has books assigned"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Review handlers

func (s *Server) listReviews(c *gin.Context) {
	reviews := []gin.H{
		{"_id": "rev-1", "book_id": c.Query("book_id"), "user_id": "user-1", "rating": 5, "comment": "Loved it"},
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews, "pagination": paginationEcho(c, len(reviews))})
}

func (s *Server) addReview(c *gin.Context) {
	var req struct {
		BookID  string `json:"book_id"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == "" || req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"_id": "rev-new", "book_id": req.BookID, "user_id": "user-1",
		"rating": req.Rating, "comment": req.Comment,
	})
}
