package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/catalog"
	"github.com/nexssio/storefront/internal/orders"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{cart.ErrInvalidSession, http.StatusBadRequest, "invalid_session"},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{cart.ErrProductNotFound, http.StatusBadRequest, "product_not_found"},
	{cart.ErrProductUnavailable, http.StatusBadRequest, "product_unavailable"},
	{cart.ErrNotFound, http.StatusNotFound, "line_item_not_found"},
	{catalog.ErrNotFound, http.StatusNotFound, "not_found"},
	{orders.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{orders.ErrCartChanged, http.StatusConflict, "cart_changed"},
	{orders.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
}

// writeError maps domain errors to responses. Anything unrecognised is a
// storage or connectivity failure and is reported as such.
func writeError(c *gin.Context, err error) {
	var cde *orders.CustomerDataError
	if errors.As(err, &cde) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": cde.Fields,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{"error": m.code, "msg": m.target.Error()})
			return
		}
	}

	_ = c.Error(err)
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "storage_unavailable",
		"msg":   "the request could not be completed, please retry",
	})
}

func badRequest(c *gin.Context, code, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": code, "msg": msg})
}
