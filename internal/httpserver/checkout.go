package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecommerce-backend/internal/domain"
	checkoutsvc "ecommerce-backend/internal/service/checkout"
)

type checkoutRequest struct {
	Card            cardRequest     `json:"card" binding:"required"`
	ShippingAddress *addressRequest `json:"shippingAddress"`
}

type cardRequest struct {
	HolderName string `json:"holderName" binding:"required"`
	Number     string `json:"number" binding:"required"`
	ExpMonth   int    `json:"expMonth" binding:"required"`
	ExpYear    int    `json:"expYear" binding:"required"`
	CVC        string `json:"cvc" binding:"required"`
}

type addressRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Country    string `json:"country" binding:"required"`
	City       string `json:"city" binding:"required"`
	StreetName string `json:"streetName" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
}

func checkoutHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
			return
		}

		in := checkoutsvc.Input{
			Card: domain.PaymentCard{
				HolderName: req.Card.HolderName,
				Number:     req.Card.Number,
				ExpMonth:   req.Card.ExpMonth,
				ExpYear:    req.Card.ExpYear,
				CVC:        req.Card.CVC,
			},
			IdempotencyKey: c.GetHeader("Idempotency-Key"),
		}
		if req.ShippingAddress != nil {
			in.AddressOverride = &domain.Address{
				FirstName:  req.ShippingAddress.FirstName,
				LastName:   req.ShippingAddress.LastName,
				Country:    req.ShippingAddress.Country,
				City:       req.ShippingAddress.City,
				StreetName: req.ShippingAddress.StreetName,
				PostalCode: req.ShippingAddress.PostalCode,
			}
		}

		order, err := svc.Checkout(c.Request.Context(), currentUser(c), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}
