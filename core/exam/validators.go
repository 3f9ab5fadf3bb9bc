package exam

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/soma/core"
)

var (
	regexpTag  = "regexp"
	regexpText = "{0} must be a valid regular expression"

	minMaxTag  = "gtefield"
	timedTag   = "required_if"
	timedParam = "IsTimed true"
)

// InitValidators registers the exam specific validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(regexpTag, regexpValidation)
	core.RegisterCustomTranslation(validate, translator, regexpTag, regexpText)

	validate.RegisterStructValidation(validationRuleStructValidation, ValidationRule{})
	validate.RegisterStructValidation(newExamStructValidation, NewExam{})
}

// regexpValidation only allows patterns that compile.
func regexpValidation(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

func validationRuleStructValidation(sl validator.StructLevel) {
	rule := sl.Current().Interface().(ValidationRule)
	if rule.MinLength != nil && rule.MaxLength != nil && *rule.MaxLength < *rule.MinLength {
		sl.ReportError(rule.MaxLength, "max_length", "MaxLength", minMaxTag, "min_length")
	}
}

func newExamStructValidation(sl validator.StructLevel) {
	ne := sl.Current().Interface().(NewExam)
	if ne.IsTimed && ne.DurationMinutes == nil {
		sl.ReportError(ne.DurationMinutes, "duration_minutes", "DurationMinutes", timedTag, timedParam)
	}
}
