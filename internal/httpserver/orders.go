package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecommerce-backend/internal/domain"
)

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListByUser(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), currentUser(c), c.Param("orderId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(svc orderService) gin.HandlerFunc {
	return transitionHandler(func(c *gin.Context) (*domain.Order, error) {
		return svc.Cancel(c.Request.Context(), currentUser(c), c.Param("orderId"))
	})
}

func shipOrderHandler(svc orderService) gin.HandlerFunc {
	return transitionHandler(func(c *gin.Context) (*domain.Order, error) {
		return svc.MarkShipped(c.Request.Context(), currentUser(c), c.Param("orderId"))
	})
}

func deliverOrderHandler(svc orderService) gin.HandlerFunc {
	return transitionHandler(func(c *gin.Context) (*domain.Order, error) {
		return svc.MarkDelivered(c.Request.Context(), currentUser(c), c.Param("orderId"))
	})
}

func transitionHandler(fn func(c *gin.Context) (*domain.Order, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := fn(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
