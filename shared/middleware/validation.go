package middleware

import (
	"errors"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so error details match the
// request body the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

// ValidateRequest returns nil when obj passes its validate tags. Nested
// fields are reported with a dotted path such as primaryAddress.city.
func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Message: errorMessage(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	// Namespace starts with the root struct name, which the client never sees.
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

var tagMessages = map[string]string{
	"required": "This field is required",
	"min":      "Value is too short",
	"max":      "Value is too long",
	"iso4217":  "Unknown currency code",
}

var paramMessages = map[string]string{
	"gt":       "Value must be greater than ",
	"gte":      "Value must be greater than or equal to ",
	"oneof":    "Value must be one of: ",
	"datetime": "Value must be a date in the format ",
}

func errorMessage(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	if prefix, ok := paramMessages[fe.Tag()]; ok {
		return prefix + fe.Param()
	}
	return "Invalid value"
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithAppError maps a service error to its HTTP status. Internal
// errors are logged and answered with fallback instead of their text.
func RespondWithAppError(c *gin.Context, err error, fallback string) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal {
		RespondWithError(c, appErr.Status(), appErr.Message)
		return
	}
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	RespondWithError(c, http.StatusInternalServerError, fallback)
}
