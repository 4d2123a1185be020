package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/nexssio/storefront/internal/contact"
	"github.com/nexssio/storefront/internal/validation"
)

func RegisterContactRoutes(r gin.IRouter, svc *contact.Service, v *validatorv10.Validate) {
	r.POST("/contact", func(c *gin.Context) {
		var req validation.ContactRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		sub, err := svc.Submit(c.Request.Context(), contact.Submission{
			Name:    req.Name,
			Email:   req.Email,
			Subject: req.Subject,
			Message: req.Message,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sub)
	})

	r.POST("/feedback", func(c *gin.Context) {
		var req validation.FeedbackRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		fb, err := svc.SubmitFeedback(c.Request.Context(), contact.Feedback{
			Name:     req.Name,
			Email:    req.Email,
			Rating:   req.Rating,
			Feedback: req.Feedback,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, fb)
	})
}
