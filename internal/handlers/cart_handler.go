package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/orders"
	"github.com/nexssio/storefront/internal/validation"
)

// RegisterCartRoutes registers the session cart endpoints. The priced summary
// is served by the order converter so it always matches what checkout charges.
func RegisterCartRoutes(r gin.IRouter, ledger *cart.Service, quoter *orders.Converter, v *validatorv10.Validate) {
	r.GET("/cart/:session", func(c *gin.Context) {
		session, ok := sessionParam(c)
		if !ok {
			return
		}
		items, err := ledger.ListItems(c.Request.Context(), session)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	})

	r.GET("/cart/:session/summary", func(c *gin.Context) {
		session, ok := sessionParam(c)
		if !ok {
			return
		}
		summary, err := quoter.Quote(c.Request.Context(), session)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSummaryDTO(session, summary))
	})

	r.POST("/cart", func(c *gin.Context) {
		var req validation.AddCartItemRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		item, err := ledger.AddItem(c.Request.Context(), cart.Session(req.SessionID), req.ProductID, quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	r.PUT("/cart/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req validation.UpdateCartItemRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		item, err := ledger.SetQuantity(c.Request.Context(), id, req.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	r.DELETE("/cart/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := ledger.RemoveItem(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	r.DELETE("/cart/clear/:session", func(c *gin.Context) {
		session, ok := sessionParam(c)
		if !ok {
			return
		}
		if err := ledger.Clear(c.Request.Context(), session); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

func sessionParam(c *gin.Context) (cart.Session, bool) {
	session := cart.Session(c.Param("session"))
	if !session.Valid() {
		badRequest(c, "invalid_session", cart.ErrInvalidSession.Error())
		return "", false
	}
	return session, true
}
