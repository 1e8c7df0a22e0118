package group

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rollcall/core"
)

var (
	ltmtTag  = "ltmt"
	ltmtText = "must be one of <, <=, >, >= or ="

	rollStatesTag  = "rollstates"
	rollStatesText = "must be a comma-separated list of unmark, present, absent or late"
)

// InitValidators registers the group validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(ltmtTag, ltmtValidation)
	core.RegisterCustomTranslation(validate, translator, ltmtTag, ltmtText)

	_ = validate.RegisterValidation(rollStatesTag, rollStatesValidation)
	core.RegisterCustomTranslation(validate, translator, rollStatesTag, rollStatesText)
}

// Custom Validators

// ltmtValidation checks that the field is one of the comparison operators.
func ltmtValidation(fl validator.FieldLevel) bool {
	_, err := ParseComparator(fl.Field().String())
	return err == nil
}

// rollStatesValidation checks that the field is a non-empty list of roll states.
func rollStatesValidation(fl validator.FieldLevel) bool {
	_, err := ParseRollStates(fl.Field().String())
	return err == nil
}
