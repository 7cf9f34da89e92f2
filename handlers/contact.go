package handlers

import (
	"context"
	"net/http"
	"strings"

	"house-price-api/metrics"
	"house-price-api/models"

	"github.com/gin-gonic/gin"
)

type ContactStore interface {
	Create(ctx context.Context, s *models.ContactSubmission) error
	List(ctx context.Context) ([]models.ContactSubmission, error)
}

type ContactHandler struct {
	store ContactStore
}

func NewContactHandler(store ContactStore) *ContactHandler {
	return &ContactHandler{store: store}
}

type ContactForm struct {
	Name    string `json:"name" binding:"required,notblank,max=100"`
	Email   string `json:"email" binding:"required,email,max=100"`
	Subject string `json:"subject" binding:"required,notblank,max=200"`
	Message string `json:"message" binding:"required,notblank"`
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var form ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondValidation(c, err)
		return
	}

	sub := models.ContactSubmission{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Subject: strings.TrimSpace(form.Subject),
		Message: form.Message,
	}
	if err := h.store.Create(c.Request.Context(), &sub); err != nil {
		respondInternal(c, "failed to submit contact form", err)
		return
	}
	metrics.ContactSubmissions.Inc()

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Contact form submitted successfully",
	})
}

func (h *ContactHandler) List(c *gin.Context) {
	rows, err := h.store.List(c.Request.Context())
	if err != nil {
		respondInternal(c, "failed to load contact submissions", err)
		return
	}
	if rows == nil {
		rows = []models.ContactSubmission{}
	}
	c.JSON(http.StatusOK, rows)
}
