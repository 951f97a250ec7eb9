package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront/models"
)

// newValidator returns a validator that reports JSON field names and knows
// the catalog categories.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.ValidCategory(fl.Field().String())
	})
	return v
}

var validate = newValidator()

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = "Please provide a valid email"
		case "min":
			if fe.Kind() == reflect.Slice {
				out[field] = fmt.Sprintf("%s needs at least %s item(s)", field, fe.Param())
			} else if fe.Kind() == reflect.String {
				out[field] = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
			} else {
				out[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
			}
		case "max":
			if fe.Kind() == reflect.String {
				out[field] = fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
			} else {
				out[field] = fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
			}
		case "gte":
			out[field] = fmt.Sprintf("%s cannot be negative", field)
		case "gt":
			out[field] = fmt.Sprintf("%s must be positive", field)
		case "category":
			out[field] = fmt.Sprintf("%s must be one of: %s", field, categoryList())
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// validateRequest checks dst and writes a 400 with field errors on failure.
// It reports whether the handler should continue.
func validateRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := validate.Struct(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		respondWithJSON(w, http.StatusBadRequest, Response{
			Message: "Validation failed",
			Errors:  formatValidationErrors(verrs),
		})
		return false
	}
	respondWithError(w, r, err)
	return false
}
