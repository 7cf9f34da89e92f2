package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"house-price-api/features"
	"house-price-api/logging"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// bindingErrorBody turns a ShouldBindJSON failure into a 422 body listing
// each offending field.
func bindingErrorBody(err error) gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return gin.H{"detail": "invalid request body"}
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: jsonName(fe), Message: fieldMessage(fe)})
	}
	return gin.H{"detail": "validation failed", "errors": fields}
}

// jsonName relies on RegisterValidators having installed the json tag
// name func.
func jsonName(fe validator.FieldError) string {
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "value is not a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func respondValidation(c *gin.Context, err error) {
	var verr *features.ValidationError
	if errors.As(err, &verr) {
		body := gin.H{"detail": verr.Error()}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	c.JSON(http.StatusUnprocessableEntity, bindingErrorBody(err))
}

// respondInternal logs err and answers with a generic message.
func respondInternal(c *gin.Context, msg string, err error) {
	logging.Error().Err(err).Str("request_id", c.GetString("request_id")).Str("path", c.Request.URL.Path).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": msg})
}
