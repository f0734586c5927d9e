package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/domain"
	adminsvc "thriftshop/internal/service/admin"
)

func listAdminsHandler(admins *adminsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := admins.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load admins"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"admins": list})
	}
}

type addAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

func addAdminHandler(admins *adminsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}
		a, err := admins.Add(c.Request.Context(), req.Email)
		switch {
		case errors.Is(err, adminsvc.ErrBadEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		case errors.Is(err, domain.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "already an admin"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add admin"})
		default:
			c.JSON(http.StatusCreated, a)
		}
	}
}

func removeAdminHandler(admins *adminsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := admins.Remove(c.Request.Context(), c.Param("userID"))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove admin"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listUsersHandler(admins *adminsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := admins.Users(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}
