package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/bainum/dashboard/core"
)

var (
	signupRoleTag  = "signuprole"
	signupRoleText = "select a valid role"

	eqFieldTag  = "eqfield"
	eqFieldText = "passwords do not match"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your name or email"
)

// InitValidators registers the user validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(signupRoleTag, signupRoleValidation)
	core.RegisterCustomTranslation(validate, translator, signupRoleTag, signupRoleText)
	core.RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)

	validate.RegisterStructValidation(userStructValidation, SignupRequest{}, ParentRegistration{}, TeacherRegistration{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// signupRoleValidation checks that the role is one of SignupRoles
func signupRoleValidation(fl validator.FieldLevel) bool {
	role := Role(fl.Field().String())
	for _, r := range SignupRoles {
		if r == role {
			return true
		}
	}
	return false
}

// userStructValidation does struct level validation on the registration forms.
func userStructValidation(sl validator.StructLevel) {
	switch form := sl.Current().Interface().(type) {
	case SignupRequest:
		validatePassword(form.Password, form.Name, form.Email, sl)
	case ParentRegistration:
		validatePassword(form.Password, form.Name, form.Email, sl)
	case TeacherRegistration:
		validatePassword(form.Password, "", "", sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no whitespace
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	if pwd == "" {
		return // reported by `required`
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	localPart := email
	if i := strings.Index(email, "@"); i > 0 {
		localPart = email[:i]
	}
	if getRatio(pwd, name) >= pwdMaxSim ||
		getRatio(pwd, localPart) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
