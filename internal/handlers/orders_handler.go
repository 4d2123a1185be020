package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/idempotency"
	"github.com/nexssio/storefront/internal/logging"
	"github.com/nexssio/storefront/internal/orders"
	"github.com/nexssio/storefront/internal/validation"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

// RegisterOrdersRoutes registers checkout and order lookup. Checkout is made
// retry-safe by an optional Idempotency-Key header.
func RegisterOrdersRoutes(r gin.IRouter, converter *orders.Converter, idemp idempotency.Store, v *validatorv10.Validate) {
	r.POST("/orders", func(c *gin.Context) {
		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}
		session := cart.Session(req.SessionID)
		ctx := orders.WithCorrelationID(c.Request.Context(), logging.RequestID(c))
		log := zerolog.Ctx(ctx)

		idempKey := c.GetHeader(idempotencyHeader)
		if len(idempKey) > maxIdempotencyKeyLen {
			badRequest(c, "invalid_idempotency_key", fmt.Sprintf("%s must be at most %d characters", idempotencyHeader, maxIdempotencyKeyLen))
			return
		}
		if idempKey != "" {
			created, err := idemp.CreateIfNotExists(ctx, idempKey, string(session))
			if err != nil {
				writeError(c, fmt.Errorf("claim idempotency key: %w", err))
				return
			}
			if !created {
				replayCheckout(c, idemp, idempKey, session)
				return
			}
		}

		order, err := converter.Checkout(ctx, session, orders.Customer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		})
		if err != nil {
			if idempKey != "" {
				// mark failed so the client can retry with the same key
				if merr := idemp.MarkFailed(ctx, idempKey, err.Error()); merr != nil {
					log.Warn().Err(merr).Str("idempotency_key", idempKey).Msg("mark idempotency failed")
				}
			}
			writeError(c, err)
			return
		}

		body, err := json.Marshal(newOrderDTO(order))
		if err != nil {
			writeError(c, fmt.Errorf("marshal order: %w", err))
			return
		}
		if idempKey != "" {
			if err := idemp.MarkDone(ctx, idempKey, string(body), http.StatusCreated); err != nil {
				log.Warn().Err(err).Str("idempotency_key", idempKey).Msg("mark idempotency done")
			}
		}

		c.Header("Location", orderLocation(order.ID))
		c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
	})

	r.GET("/orders/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		order, err := converter.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newOrderDTO(order))
	})
}

// replayCheckout answers a request whose Idempotency-Key is already held.
func replayCheckout(c *gin.Context, idemp idempotency.Store, key string, session cart.Session) {
	rec, err := idemp.Get(c.Request.Context(), key)
	if err != nil {
		writeError(c, fmt.Errorf("get idempotency record: %w", err))
		return
	}
	if rec == nil {
		// claimed and expired between our two reads; the client may simply retry
		c.JSON(http.StatusConflict, gin.H{"error": "idempotency_conflict", "msg": "retry the request"})
		return
	}
	if rec.SessionID != string(session) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "idempotency_key_reused",
			"msg":   "the idempotency key was used for a different cart",
		})
		return
	}

	switch rec.Status {
	case idempotency.StatusDone:
		var placed struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal([]byte(rec.ResponseBody), &placed); err == nil && placed.ID > 0 {
			c.Header("Location", orderLocation(placed.ID))
		}
		c.Header("Idempotent-Replayed", "true")
		c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "idempotency_conflict", "msg": "previous attempt failed, retry the request"})
	}
}

func orderLocation(id int64) string {
	return fmt.Sprintf("/api/orders/%d", id)
}
