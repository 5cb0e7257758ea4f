package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YAREUGO/shopmall/internal/cart"
	"github.com/YAREUGO/shopmall/internal/catalog"
	"github.com/YAREUGO/shopmall/internal/httpx"
	"github.com/YAREUGO/shopmall/internal/identity"
	"github.com/YAREUGO/shopmall/internal/order"
	"github.com/YAREUGO/shopmall/internal/payment"
	"github.com/YAREUGO/shopmall/internal/shoperr"
)

type routeDeps struct {
	catalog       catalog.Repository
	cart          *cart.Service
	orders        *order.Service
	payments      *payment.Service
	verifier      identity.Verifier
	syncer        *identity.Syncer
	featuredLimit int
	logger        *slog.Logger
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/products", listProductsHandler(d.catalog, d.logger))
	r.GET("/products/featured", featuredProductsHandler(d.catalog, d.featuredLimit, d.logger))
	r.GET("/products/categories", listCategoriesHandler(d.catalog, d.logger))
	r.GET("/products/:id", getProductHandler(d.catalog, d.logger))

	auth := r.Group("/", httpx.Auth(d.verifier))
	auth.GET("/cart", getCartHandler(d.cart, d.logger))
	auth.GET("/cart/summary", cartSummaryHandler(d.cart, d.logger))
	auth.POST("/cart/items", addCartItemHandler(d.cart, d.logger))
	auth.PUT("/cart/items/:id", updateCartItemHandler(d.cart, d.logger))
	auth.DELETE("/cart/items/:id", removeCartItemHandler(d.cart, d.logger))
	auth.DELETE("/cart", clearCartHandler(d.cart, d.logger))

	auth.POST("/orders", createOrderHandler(d.orders, d.logger))
	auth.GET("/orders", listOrdersHandler(d.orders, d.logger))
	auth.GET("/orders/:id", getOrderHandler(d.orders, d.logger))
	auth.POST("/orders/:id/cancel", cancelOrderHandler(d.payments, d.logger))

	auth.POST("/payments/confirm", confirmPaymentHandler(d.payments, d.logger))

	auth.POST("/api/sync-user", syncUserHandler(d.syncer, d.logger))
}

// ---------- catalog ----------

// @Summary List active products
// @Param   category query string false "filter by category"
// @Success 200 {object} map[string]interface{}
// @Router  /products [get]
func listProductsHandler(repo catalog.Repository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			items []catalog.Product
			err   error
		)
		if category := c.Query("category"); category != "" {
			items, err = repo.ListActiveByCategory(c.Request.Context(), category)
		} else {
			items, err = repo.ListActive(c.Request.Context())
		}
		if err != nil {
			writeError(c, logger, shoperr.Unknown(err))
			return
		}
		if items == nil {
			items = []catalog.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func featuredProductsHandler(repo catalog.Repository, limit int, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.ListFeatured(c.Request.Context(), limit)
		if err != nil {
			writeError(c, logger, shoperr.Unknown(err))
			return
		}
		if items == nil {
			items = []catalog.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func listCategoriesHandler(repo catalog.Repository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := repo.ListCategories(c.Request.Context())
		if err != nil {
			writeError(c, logger, shoperr.Unknown(err))
			return
		}
		if categories == nil {
			categories = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

// @Summary Get one active product
// @Param   id path string true "product id"
// @Success 200 {object} catalog.Product
// @Failure 404 {object} httpError
// @Router  /products/{id} [get]
func getProductHandler(repo catalog.Repository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetActiveByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, logger, shoperr.Unknown(err))
			return
		}
		if p == nil {
			writeError(c, logger, shoperr.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ---------- cart ----------

// addCartItemRequest is the add-to-cart payload.
// swagger:model addCartItemRequest
type addCartItemRequest struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"   example:"1"`
}

func getCartHandler(svc *cart.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.Items(c.Request.Context(), httpx.OwnerID(c))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func cartSummaryHandler(svc *cart.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.Summary(c.Request.Context(), httpx.OwnerID(c))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// @Summary Add a product to the cart
// @Param   body body addCartItemRequest true "item"
// @Success 201
// @Failure 409 {object} httpError "insufficient stock"
// @Router  /cart/items [post]
func addCartItemHandler(svc *cart.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, logger, &shoperr.ValidationError{Reason: "invalid request body"})
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if err := svc.AddItem(c.Request.Context(), httpx.OwnerID(c), req.ProductID, req.Quantity); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusCreated)
	}
}

func updateCartItemHandler(svc *cart.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, logger, &shoperr.ValidationError{Reason: "invalid request body"})
			return
		}
		if err := svc.SetQuantity(c.Request.Context(), httpx.OwnerID(c), c.Param("id"), req.Quantity); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeCartItemHandler(svc *cart.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RemoveItem(c.Request.Context(), httpx.OwnerID(c), c.Param("id")); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler(svc *cart.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), httpx.OwnerID(c)); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ---------- orders ----------

// createOrderRequest is the checkout payload.
// swagger:model createOrderRequest
type createOrderRequest struct {
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
	OrderNote       string                `json:"order_note,omitempty"`
}

// @Summary Snapshot the cart into a pending order
// @Param   body body createOrderRequest true "shipping details"
// @Success 201 {object} map[string]string
// @Failure 400 {object} httpError "empty cart or bad address"
// @Router  /orders [post]
func createOrderHandler(svc *order.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, logger, &shoperr.ValidationError{Reason: "invalid request body"})
			return
		}
		addr := req.ShippingAddress
		if addr.Name == "" || addr.Phone == "" || addr.Address == "" || addr.PostalCode == "" {
			writeError(c, logger, &shoperr.ValidationError{Reason: "shipping address requires name, phone, address and postal_code"})
			return
		}
		orderID, err := svc.Create(c.Request.Context(), httpx.OwnerID(c), addr, req.OrderNote)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
	}
}

func listOrdersHandler(svc *order.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListByOwner(c.Request.Context(), httpx.OwnerID(c))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func getOrderHandler(svc *order.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.GetByID(c.Request.Context(), httpx.OwnerID(c), c.Param("id"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// ---------- payments ----------

// confirmPaymentRequest is the provider callback payload relayed by the
// payment success page.
// swagger:model confirmPaymentRequest
type confirmPaymentRequest struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	PaymentKey string `json:"payment_key"`
}

// @Summary Reconcile a provider payment callback
// @Param   body body confirmPaymentRequest true "callback"
// @Success 200 {object} map[string]string
// @Failure 409 {object} httpError "already processed or amount mismatch"
// @Router  /payments/confirm [post]
func confirmPaymentHandler(svc *payment.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, logger, &shoperr.ValidationError{Reason: "invalid request body"})
			return
		}
		if req.OrderID == "" || req.PaymentKey == "" {
			writeError(c, logger, &shoperr.ValidationError{Reason: "order_id and payment_key are required"})
			return
		}
		orderID, err := svc.Confirm(c.Request.Context(), httpx.OwnerID(c), payment.CallbackParams{
			OrderID:    req.OrderID,
			Amount:     req.Amount,
			PaymentKey: req.PaymentKey,
		})
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": orderID})
	}
}

func cancelOrderHandler(svc *payment.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Cancel(c.Request.Context(), httpx.OwnerID(c), c.Param("id")); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ---------- identity ----------

func syncUserHandler(syncer *identity.Syncer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, logger, &shoperr.ValidationError{Reason: "invalid request body"})
			return
		}
		if req.Email == "" {
			writeError(c, logger, &shoperr.ValidationError{Reason: "email is required"})
			return
		}
		// Sync is retried and, on repeated failure, abandoned with a log line.
		syncer.Sync(c.Request.Context(), &identity.User{
			ID:    httpx.OwnerID(c),
			Email: req.Email,
			Name:  req.Name,
		})
		c.Status(http.StatusNoContent)
	}
}

// ---------- error mapping ----------

// httpError is the uniform JSON error body. Code lets the client route to the
// right recovery screen without parsing messages.
// swagger:model httpError
type httpError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		validationErr  *shoperr.ValidationError
		stockErr       *shoperr.StockError
		processedErr   *shoperr.AlreadyProcessedError
		mismatchErr    *shoperr.AmountMismatchError
		stateErr       *shoperr.InvalidStateError
		persistenceErr *shoperr.OrderPersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, httpError{Error: validationErr.Reason, Code: "validation"})
	case errors.Is(err, shoperr.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, httpError{Error: "authentication required", Code: "unauthenticated"})
	case errors.Is(err, shoperr.ErrNotFound):
		c.JSON(http.StatusNotFound, httpError{Error: "not found", Code: "not_found"})
	case errors.Is(err, shoperr.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, httpError{Error: "cart is empty", Code: "empty_cart"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, httpError{Error: stockErr.Error(), Code: "out_of_stock"})
	case errors.As(err, &processedErr):
		c.JSON(http.StatusConflict, httpError{Error: processedErr.Error(), Code: "already_processed"})
	case errors.As(err, &mismatchErr):
		c.JSON(http.StatusConflict, httpError{Error: "payment amount does not match the order total", Code: "amount_mismatch"})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, httpError{Error: stateErr.Error(), Code: "invalid_state"})
	case errors.As(err, &persistenceErr):
		logger.Error("order persistence failure", "error", err, "rid", c.GetString("rid"))
		c.JSON(http.StatusInternalServerError, httpError{Error: "failed to create order", Code: "persistence"})
	default:
		// Full detail stays in server logs; clients get a generic message.
		logger.Error("unexpected error", "error", err, "rid", c.GetString("rid"), "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, httpError{Error: "internal error", Code: "internal"})
	}
}
