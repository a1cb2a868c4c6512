package validation

import (
	"errors"
	"fmt"
	"strings"

	"catalog-api/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// rule describes one writable field: its validator tag and the message for
// each failing tag. "missing" is used when a required field is absent.
type rule struct {
	field    string
	tag      string
	messages map[string]string
}

func (r rule) message(tag string) string {
	if msg, ok := r.messages[tag]; ok {
		return msg
	}
	return fmt.Sprintf("Invalid value for %s.", r.field)
}

// check runs the rule's tag against value and records the first failure.
func (r rule) check(value interface{}, errs *domain.FieldErrors) bool {
	err := validate.Var(value, r.tag)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		errs.Add(r.field, r.message(verrs[0].Tag()))
		return false
	}
	errs.Add(r.field, r.message(""))
	return false
}

// stringField decodes and checks a string field. ok is false when the field
// was absent or invalid; a missing required field is reported.
func stringField(in Input, r rule, required bool, errs *domain.FieldErrors) (string, bool) {
	raw, present := in[r.field]
	if !present {
		if required {
			errs.Add(r.field, r.message("missing"))
		}
		return "", false
	}
	s, problem := decodeString(raw)
	if problem != "" {
		errs.Add(r.field, problem)
		return "", false
	}
	return s, r.check(s, errs)
}

func floatField(in Input, r rule, required bool, errs *domain.FieldErrors) (float64, bool) {
	raw, present := in[r.field]
	if !present {
		if required {
			errs.Add(r.field, r.message("missing"))
		}
		return 0, false
	}
	f, problem := decodeFloat(raw)
	if problem != "" {
		errs.Add(r.field, problem)
		return 0, false
	}
	return f, r.check(f, errs)
}

func intField(in Input, r rule, required bool, errs *domain.FieldErrors) (int, bool) {
	raw, present := in[r.field]
	if !present {
		if required {
			errs.Add(r.field, r.message("missing"))
		}
		return 0, false
	}
	v, problem := decodeInt(raw)
	if problem != "" {
		errs.Add(r.field, problem)
		return 0, false
	}
	return v, r.check(v, errs)
}

func addUnexpected(in Input, allowed map[string]bool, errs *domain.FieldErrors) {
	if extra := in.unexpected(allowed); len(extra) > 0 {
		errs.Add("extra_fields", "Unexpected fields: "+strings.Join(extra, ", "))
	}
}
