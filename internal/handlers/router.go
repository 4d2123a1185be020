package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/catalog"
	"github.com/nexssio/storefront/internal/contact"
	"github.com/nexssio/storefront/internal/idempotency"
	"github.com/nexssio/storefront/internal/logging"
	"github.com/nexssio/storefront/internal/orders"
	"github.com/nexssio/storefront/internal/validation"
)

// Deps groups the services behind the HTTP API.
type Deps struct {
	Catalog     catalog.Store
	Cart        *cart.Service
	Orders      *orders.Converter
	Contact     *contact.Service
	Idempotency idempotency.Store
	Logger      zerolog.Logger
}

// NewRouter builds the gin engine serving /health and the /api routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(d.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v := validation.New()
	api := r.Group("/api")
	RegisterCatalogRoutes(api, d.Catalog)
	RegisterCartRoutes(api, d.Cart, d.Orders, v)
	RegisterOrdersRoutes(api, d.Orders, d.Idempotency, v)
	RegisterContactRoutes(api, d.Contact, v)

	return r
}
