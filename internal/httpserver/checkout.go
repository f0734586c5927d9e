package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/cart"
	"thriftshop/internal/checkout"
	"thriftshop/internal/domain"
	"thriftshop/internal/payment"
)

type startCheckoutResponse struct {
	AttemptID string                 `json:"attemptId"`
	State     checkout.State         `json:"state"`
	Params    payment.CheckoutParams `json:"params"`
}

func startCheckoutHandler(orch *checkout.Orchestrator, carts *cart.Manager, gateway *payment.WidgetGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := currentIdentity(c)
		store := carts.ForOwner(c.Request.Context(), ident.ID)

		attempt, err := orch.Start(c.Request.Context(), ident.ID, ident.Email, store)
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
			return
		case errors.Is(err, checkout.ErrInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "checkout already in progress"})
			return
		case err != nil:
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment could not be initiated"})
			return
		}

		params, _ := gateway.Params(attempt.ID)
		c.JSON(http.StatusCreated, startCheckoutResponse{
			AttemptID: attempt.ID,
			State:     attempt.Status().State,
			Params:    params,
		})
	}
}

func checkoutStatusHandler(orch *checkout.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempt, ok := orch.Get(c.Param("attemptID"))
		if !ok || attempt.Owner != currentIdentity(c).ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown checkout attempt"})
			return
		}
		c.JSON(http.StatusOK, attempt.Status())
	}
}

// completePaymentHandler receives the widget's terminal result. The gateway
// routes it to the attempt's callbacks synchronously, so the response already
// reflects the final state.
func completePaymentHandler(orch *checkout.Orchestrator, gateway *payment.WidgetGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempt, ok := orch.Get(c.Param("attemptID"))
		if !ok || attempt.Owner != currentIdentity(c).ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown checkout attempt"})
			return
		}

		var res payment.Completion
		if err := c.ShouldBindJSON(&res); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid completion payload"})
			return
		}

		if err := gateway.Complete(attempt.ID, res); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusConflict, gin.H{"error": "attempt already completed"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment completion failed"})
			return
		}
		c.JSON(http.StatusOK, attempt.Status())
	}
}
