package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	roleTag  = "role"
	roleText = "must be one of ADMIN, TEACHER, PARENT, STUDENT"

	enrollmentStatusTag  = "enrollmentstatus"
	enrollmentStatusText = "must be one of ENROLLED, PENDING, WAITLISTED, WITHDRAWN, GRADUATED"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	validRoles = map[string]bool{
		"ADMIN": true, "TEACHER": true, "PARENT": true, "STUDENT": true,
	}
	validEnrollmentStatuses = map[string]bool{
		"ENROLLED": true, "PENDING": true, "WAITLISTED": true, "WITHDRAWN": true, "GRADUATED": true,
	}
)

// NewTranslator returns the default "en" translator.
func NewTranslator() ut.Translator {
	lang := en.New()
	translator, _ := ut.New(lang, lang).GetTranslator(lang.Locale())
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(roleTag, roleValidation)
	RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(enrollmentStatusTag, enrollmentStatusValidation)
	RegisterCustomTranslation(validate, translator, enrollmentStatusTag, enrollmentStatusText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func roleValidation(fl validator.FieldLevel) bool {
	return validRoles[fl.Field().String()]
}

func enrollmentStatusValidation(fl validator.FieldLevel) bool {
	return validEnrollmentStatuses[fl.Field().String()]
}
