package session

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kyalo/darasa/core"
)

var (
	statusTag  = "sessionstatus"
	statusText = fmt.Sprintf("status must be one of %s", joinStatuses())

	endAfterStartText = "end_time must be later than start_time"
)

func joinStatuses() string {
	names := make([]string, 0, len(AllStatuses))
	for _, st := range AllStatuses {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}

// InitValidators registers the session package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
	core.RegisterCustomTranslation(validate, translator, "gtfield", endAfterStartText, true)
}

// statusValidation checks that the value is a known session status.
func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
