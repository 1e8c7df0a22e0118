package roll

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rollcall/core"
)

var (
	rollStateTag  = "rollstate"
	rollStateText = "must be one of unmark, present, absent or late"
)

// InitValidators registers the roll validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(rollStateTag, rollStateValidation)
	core.RegisterCustomTranslation(validate, translator, rollStateTag, rollStateText)
}

// rollStateValidation checks that the field is a known State.
func rollStateValidation(fl validator.FieldLevel) bool {
	_, err := ParseState(fl.Field().String())
	return err == nil
}
