package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// promo type names are registered by the promo domain
var promoTypeNames = map[string]struct{}{}

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// fuel_action: lowercase snake identifier, e.g. cv_builder
	validate.RegisterValidation("fuel_action", func(fl validator.FieldLevel) bool {
		action := fl.Field().String()
		if action == "" || len(action) > 64 {
			return false
		}
		for _, r := range action {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
				return false
			}
		}
		return true
	})

	validate.RegisterValidation("promo_type", func(fl validator.FieldLevel) bool {
		_, ok := promoTypeNames[fl.Field().String()]
		return ok
	})
}

// RegisterPromoTypes declares the values accepted by the promo_type tag.
func RegisterPromoTypes(names ...string) {
	for _, n := range names {
		promoTypeNames[n] = struct{}{}
	}
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": "Invalid value"}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required"
		case "min":
			out[field] = "Value is too short (min: " + fe.Param() + ")"
		case "max":
			out[field] = "Value is too long (max: " + fe.Param() + ")"
		case "gt":
			out[field] = "Value must be greater than " + fe.Param()
		case "gte":
			out[field] = "Value must be at least " + fe.Param()
		case "lte":
			out[field] = "Value must be at most " + fe.Param()
		case "fuel_action":
			out[field] = "Invalid action name"
		case "promo_type":
			out[field] = "Invalid promo type. Must be: unlimited or bonus"
		default:
			out[field] = "Invalid value"
		}
	}

	return out
}
