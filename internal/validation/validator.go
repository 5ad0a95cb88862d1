package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"rifas/internal/models"
	"rifas/internal/numbering"
)

// Register installs the raffle tags on gin's validator engine
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v)
}

// RegisterOn installs rifatipo, rifastatus and numero_digits on v
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	tags := map[string]validator.Func{
		"rifatipo":      validateTipo,
		"rifastatus":    validateRaffleStatus,
		"numero_digits": validateNumeroDigits,
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}
	return nil
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateTipo(fl validator.FieldLevel) bool {
	_, err := numbering.ParseTipo(fl.Field().String())
	return err == nil
}

func validateRaffleStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseRaffleStatus(fl.Field().String())
	return err == nil
}

// validateNumeroDigits accepts 2 to 4 digits, the widest ticket number
func validateNumeroDigits(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 2 || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NumeroParam is the path parameter of the reservation and admin number
// endpoints
type NumeroParam struct {
	RifaID string `uri:"id" binding:"required"`
	Numero string `uri:"numero" binding:"required,numero_digits"`
}

// FieldErrors flattens validator errors into field -> tag pairs
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
