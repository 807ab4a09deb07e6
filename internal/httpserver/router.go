package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecommerce-backend/internal/domain"
	checkoutsvc "ecommerce-backend/internal/service/checkout"
)

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type basketService interface {
	Get(ctx context.Context, userID string) ([]domain.BasketLine, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	ChangeQuantity(ctx context.Context, userID, lineID string, quantity int) error
	Clear(ctx context.Context, userID string) error
}

type checkoutService interface {
	Checkout(ctx context.Context, userID string, in checkoutsvc.Input) (*domain.Order, error)
}

type orderService interface {
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error)
	MarkShipped(ctx context.Context, userID, orderID string) (*domain.Order, error)
	MarkDelivered(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

// Deps carries the services the router exposes.
type Deps struct {
	ProductSvc  productService
	BasketSvc   basketService
	CheckoutSvc checkoutService
	OrderSvc    orderService
}

const userIDKey = "userID"

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.ProductSvc == nil || deps.BasketSvc == nil || deps.CheckoutSvc == nil || deps.OrderSvc == nil {
		return nil, fmt.Errorf("httpserver: missing service dependency")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "X-User-ID", "Idempotency-Key"},
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.GET("/products", listProductsHandler(deps.ProductSvc))
	router.GET("/products/:productId", getProductHandler(deps.ProductSvc))

	authed := router.Group("/", userAuth())
	authed.GET("/basket", getBasketHandler(deps.BasketSvc))
	authed.POST("/basket/items", addBasketItemHandler(deps.BasketSvc))
	authed.PATCH("/basket/items/:lineId", changeBasketItemHandler(deps.BasketSvc))
	authed.DELETE("/basket", clearBasketHandler(deps.BasketSvc))
	authed.POST("/checkout", checkoutHandler(deps.CheckoutSvc))
	authed.GET("/orders", listOrdersHandler(deps.OrderSvc))
	authed.GET("/orders/:orderId", getOrderHandler(deps.OrderSvc))
	authed.POST("/orders/:orderId/cancel", cancelOrderHandler(deps.OrderSvc))
	authed.POST("/orders/:orderId/ship", shipOrderHandler(deps.OrderSvc))
	authed.POST("/orders/:orderId/deliver", deliverOrderHandler(deps.OrderSvc))

	return router, nil
}

// userAuth requires the caller identity resolved by the edge proxy.
func userAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("unauthorized", "missing X-User-ID header"))
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// writeError maps domain failures onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var declined *domain.PaymentDeclinedError
	switch {
	case errors.As(err, &declined):
		c.JSON(http.StatusPaymentRequired, errorBody("payment_declined", declined.Reason))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("not_found", "resource not found"))
	case errors.Is(err, domain.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, errorBody("account_not_found", "no account for the current user"))
	case errors.Is(err, domain.ErrEmptyBasket):
		c.JSON(http.StatusBadRequest, errorBody("empty_basket", "basket has no items"))
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, errorBody("insufficient_stock", "not enough stock to fulfil the order"))
	case errors.Is(err, domain.ErrLockTimeout):
		c.JSON(http.StatusConflict, errorBody("busy", "resource is busy, retry shortly"))
	case errors.Is(err, domain.ErrInvalidOrderState):
		c.JSON(http.StatusConflict, errorBody("invalid_state", err.Error()))
	case errors.Is(err, domain.ErrPaymentUnavailable):
		c.JSON(http.StatusBadGateway, errorBody("payment_unavailable", "payment provider unreachable"))
	default:
		c.JSON(http.StatusInternalServerError, errorBody("internal", "internal error"))
	}
}
