package operations

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ColorTag validates a watermark color. An empty value is accepted and draws
// white.
const ColorTag = "watermark_color"

// NewValidator returns a validator that knows the watermark tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation(ColorTag, validColor)
	return v
}

func validColor(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, err := ParseColor(s)
	return err == nil
}
