package roster

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/bainum/dashboard/core"
)

var (
	genderTag  = "gender"
	genderText = "select a valid gender"

	diagnosisTag  = "diagnosis"
	diagnosisText = "select Yes or No"

	languageTag  = "language"
	languageText = "select a valid language"
)

// InitValidators registers the roster validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(genderTag, oneOf(Genders))
	core.RegisterCustomTranslation(validate, translator, genderTag, genderText)

	_ = validate.RegisterValidation(diagnosisTag, oneOf(Diagnoses))
	core.RegisterCustomTranslation(validate, translator, diagnosisTag, diagnosisText)

	_ = validate.RegisterValidation(languageTag, oneOf(Languages))
	core.RegisterCustomTranslation(validate, translator, languageTag, languageText)
}

func oneOf(choices []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, c := range choices {
			if val == c {
				return true
			}
		}
		return false
	}
}
