// Package validate wraps a singleton struct validator with english messages keyed by json names
package validate

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Svc holds the validator and its translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Svc
)

// Get returns the validator singleton, initializing on first use
func Get() *Svc {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("column", isColumn)
		_ = v.RegisterTranslation("column", trans,
			func(t ut.Translator) error {
				return t.Add("column", "{0} must be a column name without spaces or commas", true)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T("column", fe.Field())
				return msg
			},
		)

		svc = &Svc{Validator: v, Translator: trans}
	})
	return svc
}

// isColumn accepts letters, digits and underscores, including accented letters
func isColumn(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Struct validates v and maps the first failure to a project error with the field attached
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.Wrap(inv, perr.ErrorCodeInvalidArgument, "validation error")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeInvalidArgument, "%s", msg), field)
}

// FieldAndMessage returns the namespaced field and translated message of the first failure
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			return fe.Namespace(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}
