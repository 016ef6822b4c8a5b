// Package validate checks inbound payloads with struct tags and renders the
// first failure as a short human-readable message.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func lazyinit() {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// report json names, not Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("sessionid", isSessionID)
		_ = validate.RegisterValidation("notblank", validators.NotBlank)

		locale := en.New()
		uni := ut.New(locale, locale)
		translator, _ = uni.GetTranslator("en")

		_ = en_translations.RegisterDefaultTranslations(validate, translator)
		registerCustomTranslations()
	})
}

func isSessionID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func registerCustomTranslations() {
	add := func(tag, text string, withParam bool) {
		_ = validate.RegisterTranslation(tag, translator, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			var t string
			if withParam {
				t, _ = ut.T(tag, fe.Field(), fe.Param())
			} else {
				t, _ = ut.T(tag, fe.Field())
			}
			return t
		})
	}

	add("required", "{0} is required", false)
	add("max", "{0} must be at most {1}", true)
	add("min", "{0} must be at least {1}", true)
	add("gte", "{0} must be greater than or equal to {1}", true)
	add("oneof", "{0} must be one of [{1}]", true)
	add("sessionid", "{0} must be a 6-digit session code", false)
	add("notblank", "{0} must not be blank", false)
}

// Struct validates obj and returns an error whose message is the first
// translated field failure.
func Struct(obj any) error {
	lazyinit()

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(verrs[0].Translate(translator))
	}
	return err
}

// Var validates a single value against a tag expression.
func Var(value any, tag string) error {
	lazyinit()

	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(verrs[0].Translate(translator))
	}
	return err
}
