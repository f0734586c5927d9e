package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/cart"
	"thriftshop/internal/domain"
)

func cartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := carts.ForOwner(c.Request.Context(), currentIdentity(c).ID)
		c.JSON(http.StatusOK, store.Snapshot())
	}
}

func addCartItemHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item domain.CartItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item payload"})
			return
		}
		if item.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
			return
		}
		store := carts.ForOwner(c.Request.Context(), currentIdentity(c).ID)
		if err := store.AddItem(c.Request.Context(), item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart could not be saved"})
			return
		}
		c.JSON(http.StatusOK, store.Snapshot())
	}
}

// quantity is a plain int, not binding:"required": zero is a legal input that
// the store clamps to one.
type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func updateCartItemHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity payload"})
			return
		}
		store := carts.ForOwner(c.Request.Context(), currentIdentity(c).ID)
		if err := store.UpdateQuantity(c.Request.Context(), c.Param("lineID"), req.Quantity); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart could not be saved"})
			return
		}
		c.JSON(http.StatusOK, store.Snapshot())
	}
}

func removeCartItemHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := carts.ForOwner(c.Request.Context(), currentIdentity(c).ID)
		if err := store.RemoveItem(c.Request.Context(), c.Param("lineID")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart could not be saved"})
			return
		}
		c.JSON(http.StatusOK, store.Snapshot())
	}
}

func clearCartHandler(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := carts.ForOwner(c.Request.Context(), currentIdentity(c).ID)
		if err := store.Clear(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart could not be cleared"})
			return
		}
		c.JSON(http.StatusOK, store.Snapshot())
	}
}
