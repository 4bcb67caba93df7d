// Package inputval validates decoded API input with go-playground/validator
// and turns failures into field-keyed, user-friendly messages.
//
//	type SessionInput struct {
//	    Student string `json:"student" validate:"required,max=128" label:"Student"`
//	    Status  string `json:"session_status" validate:"required,sessionstatus" label:"Session status"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.ValidationError(w, res.Fields())
//	    return
//	}
package inputval

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/stratagrades/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// Result holds validation results.
type Result struct {
	Errors []FieldError
}

// FieldError is one failed rule. Field is the JSON path, e.g.
// "grades[2].title".
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each failing field path to its message. The first failure per
// field wins.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("sessionstatus", func(fl validator.FieldLevel) bool {
			return models.SessionStatus(fl.Field().String()).IsValid()
		})
		_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
	})
	return validate
}

// Validate checks s against its `validate` tags. Labels come from `label`
// tags; fields without one are named by their JSON name.
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result.Errors = append(result.Errors, FieldError{Message: "Input is invalid."})
		return result
	}

	labels := fieldLabels(s)
	for _, e := range verrs {
		label := labels[e.StructField()]
		if label == "" {
			label = e.Field()
		}
		result.Errors = append(result.Errors, FieldError{
			Field:   fieldPath(e.Namespace()),
			Label:   label,
			Message: formatMessage(label, e.Tag(), e.Param(), e.Kind()),
		})
	}
	return result
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// fieldLabels collects `label` tags by Go field name, walking one level into
// slice-of-struct fields.
func fieldLabels(s any) map[string]string {
	labels := make(map[string]string)
	collectLabels(reflect.TypeOf(s), labels, 0)
	return labels
}

func collectLabels(t reflect.Type, labels map[string]string, depth int) {
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct || depth > 1 {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if label := f.Tag.Get("label"); label != "" {
			if _, taken := labels[f.Name]; !taken {
				labels[f.Name] = label
			}
		}
		collectLabels(f.Type, labels, depth+1)
	}
}

func formatMessage(label, tag, param string, kind reflect.Kind) string {
	numeric := kind >= reflect.Int && kind <= reflect.Float64
	switch tag {
	case "required":
		return label + " is required."
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min", "gte":
		if numeric {
			return label + " must be at least " + param + "."
		}
		return label + " must be at least " + param + " characters."
	case "max", "lte":
		if numeric {
			return label + " must be at most " + param + "."
		}
		return label + " must be at most " + param + " characters."
	case "gt":
		return label + " must be greater than " + param + "."
	case "sessionstatus":
		return label + " must be one of: active, expired, pending."
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://."
	default:
		return label + " is invalid."
	}
}

// IsValidHTTPURL reports whether s is an absolute http or https URL with a
// host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
