package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/domain"
	productsvc "thriftshop/internal/service/product"
)

type productRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	PriceCents  int64        `json:"priceCents"`
	Image       string       `json:"image"`
	Images      []string     `json:"images"`
	Sizes       []string     `json:"sizes"`
	Colors      []colorValue `json:"colors"`
}

// colorValue accepts either a plain string or a {name, value} object, the two
// shapes the catalog data has historically carried.
type colorValue struct {
	Name  string
	Value string
}

func (c *colorValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Name = s
		return nil
	}
	var obj struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Name = obj.Name
	c.Value = obj.Value
	return nil
}

func (r productRequest) toInput() productsvc.Input {
	colors := make([]productsvc.ColorInput, 0, len(r.Colors))
	for _, c := range r.Colors {
		colors = append(colors, productsvc.ColorInput{Name: c.Name, Value: c.Value})
	}
	return productsvc.Input{
		Name:        r.Name,
		Description: r.Description,
		PriceCents:  r.PriceCents,
		Image:       r.Image,
		Images:      r.Images,
		Sizes:       r.Sizes,
		Colors:      colors,
	}
}

func listProductsHandler(products *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := products.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load products"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": list})
	}
}

func getProductHandler(products *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := products.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func createProductHandler(products *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
			return
		}
		p, err := products.Create(c.Request.Context(), req.toInput())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, productsvc.ErrNameRequired) || errors.Is(err, productsvc.ErrBadPrice) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(products *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
			return
		}
		p, err := products.Update(c.Request.Context(), c.Param("id"), req.toInput())
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, productsvc.ErrNameRequired), errors.Is(err, productsvc.ErrBadPrice):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
		default:
			c.JSON(http.StatusOK, p)
		}
	}
}

func deleteProductHandler(products *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := products.Delete(c.Request.Context(), c.Param("id"))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func uploadProductImageHandler(products *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file could not be read"})
			return
		}
		defer f.Close()

		url, err := products.UploadImage(c.Request.Context(), fh.Filename, f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url})
	}
}
