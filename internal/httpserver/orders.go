package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/domain"
	ordersvc "thriftshop/internal/service/order"
)

func myOrdersHandler(orders *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := currentIdentity(c)
		list, err := orders.ListForCustomer(c.Request.Context(), ident.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load orders"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

func allOrdersHandler(orders *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.ListAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load orders"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func updateOrderStatusHandler(orders *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		status, ok := domain.ParseOrderStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order status"})
			return
		}

		order, err := orders.UpdateStatus(c.Request.Context(), c.Param("id"), status)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
		default:
			c.JSON(http.StatusOK, order)
		}
	}
}
