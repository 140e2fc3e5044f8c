package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	wordCharsPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)
	phonePattern     = regexp.MustCompile(`^[0-9\s\-+()]+$`)
)

// validate checks tagged input structs. Field names in its errors are the
// form names from the `form` tag.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("form"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	mustRegister(v, "wordchars", func(fl validator.FieldLevel) bool {
		return wordCharsPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// messages maps a form field, or "field.tag" for a single rule, to the text
// shown to users. The rule-specific entry wins.
type messages map[string]string

func (m messages) lookup(fe validator.FieldError) string {
	if msg, ok := m[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := m[fe.Field()]; ok {
		return msg
	}
	return fe.Error()
}

// fieldMessage is one failing field with its user-facing message.
type fieldMessage struct {
	Field   string
	Message string
}

// check validates in and returns one message per failing field, in field
// declaration order.
func check(in interface{}, m messages) []fieldMessage {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldMessage{{Message: err.Error()}}
	}
	out := make([]fieldMessage, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldMessage{Field: fe.Field(), Message: m.lookup(fe)})
	}
	return out
}

// firstInvalid returns an ErrInvalid error carrying the first failing
// field's message, or nil when in is valid.
func firstInvalid(in interface{}, m messages) error {
	if errs := check(in, m); len(errs) > 0 {
		return newError(ErrInvalid, errs[0].Message)
	}
	return nil
}

func validRole(role string) bool {
	return validate.Var(role, "oneof=user admin") == nil
}
