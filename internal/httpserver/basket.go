package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addBasketItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type changeQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func getBasketHandler(svc basketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, err := svc.Get(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		var total int64
		for _, line := range lines {
			total += line.TotalCents()
		}
		c.JSON(http.StatusOK, gin.H{"items": lines, "totalCents": total})
	}
}

func addBasketItemHandler(svc basketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addBasketItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
			return
		}
		if req.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", "quantity must be positive"))
			return
		}
		if err := svc.AddItem(c.Request.Context(), currentUser(c), req.ProductID, req.Quantity); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func changeBasketItemHandler(svc basketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changeQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
			return
		}
		if req.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", "quantity must be positive"))
			return
		}
		if err := svc.ChangeQuantity(c.Request.Context(), currentUser(c), c.Param("lineId"), req.Quantity); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clearBasketHandler(svc basketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), currentUser(c)); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
