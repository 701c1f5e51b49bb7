package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	usernameTag   = "username"
	usernameText  = "{0} must be 3-20 letters, digits or underscores"
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

	skinTag  = "skin"
	skinText = "{0} is not a known skin"
)

// Validator checks request bodies and renders failures keyed by JSON
// field name.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator builds the request validator. validSkin backs the skin tag.
func NewValidator(validSkin func(string) bool) *Validator {
	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, trans)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(usernameTag, func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	registerTranslation(validate, trans, usernameTag, usernameText)

	_ = validate.RegisterValidation(skinTag, func(fl validator.FieldLevel) bool {
		return validSkin(fl.Field().String())
	})
	registerTranslation(validate, trans, skinTag, skinText)

	return &Validator{validate: validate, translator: trans}
}

func ValidUsername(s string) bool {
	return usernameRegex.MatchString(s)
}

// Struct returns nil or a field -> message map.
func (v *Validator) Struct(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(v.translator)
	}
	return out
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}
