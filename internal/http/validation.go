package http

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kylabear/dv-tracking/internal/service"
)

// RegisterValidations installs the DV document-number formats as binding
// validations, so malformed payloads are rejected at the edge with the same
// rules the service enforces.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("dvnumber", func(fl validator.FieldLevel) bool {
		return service.DVNumberPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("uacs", func(fl validator.FieldLevel) bool {
		return service.UACSPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("orsnumber", func(fl validator.FieldLevel) bool {
		return service.ORSNumberPattern.MatchString(fl.Field().String())
	})
}
