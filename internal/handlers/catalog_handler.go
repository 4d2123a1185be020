package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nexssio/storefront/internal/catalog"
)

// RegisterCatalogRoutes registers the read-only catalog endpoints.
func RegisterCatalogRoutes(r gin.IRouter, store catalog.Store) {
	r.GET("/services", func(c *gin.Context) {
		services, err := store.Services(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(services, newServiceDTO))
	})

	r.GET("/services/:category", func(c *gin.Context) {
		category, ok := categoryParam(c, catalog.KindService)
		if !ok {
			return
		}
		services, err := store.ServicesByCategory(c.Request.Context(), category)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(services, newServiceDTO))
	})

	r.GET("/products", func(c *gin.Context) {
		products, err := store.Products(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(products, newProductDTO))
	})

	r.GET("/products/:category", func(c *gin.Context) {
		category, ok := categoryParam(c, catalog.KindProduct)
		if !ok {
			return
		}
		products, err := store.ProductsByCategory(c.Request.Context(), category)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(products, newProductDTO))
	})

	r.GET("/products/item/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		product, err := store.Product(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newProductDTO(product))
	})

	r.GET("/portfolio", func(c *gin.Context) {
		items, err := store.Portfolio(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(items, newPortfolioDTO))
	})

	r.GET("/portfolio/featured", func(c *gin.Context) {
		items, err := store.FeaturedPortfolio(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(items, newPortfolioDTO))
	})

	r.GET("/portfolio/:category", func(c *gin.Context) {
		category, ok := categoryParam(c, catalog.KindPortfolio)
		if !ok {
			return
		}
		items, err := store.PortfolioByCategory(c.Request.Context(), category)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(items, newPortfolioDTO))
	})
}

func categoryParam(c *gin.Context, kind catalog.Kind) (string, bool) {
	category := c.Param("category")
	if !catalog.ValidCategory(kind, category) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "unknown_category",
			"msg":        "unknown " + string(kind) + " category " + strconv.Quote(category),
			"categories": catalog.Categories(kind),
		})
		return "", false
	}
	return category, true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		badRequest(c, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
