package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// FieldError is one problem found in a document.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:[0-5]\d$`)

// customValidations are the tags beyond the validator built-ins.
var customValidations = map[string]validator.Func{
	"clock": func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	},
}

func registerValidations(v *validator.Validate, fns map[string]validator.Func) error {
	for tag, fn := range fns {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

// Validator checks documents by instrument type.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := registerValidations(v, customValidations); err != nil {
		panic(err)
	}

	return &Validator{validate: v, logger: logger}
}

var defaultValidator = sync.OnceValue(func() *Validator { return NewValidator(nil) })

// Validate checks doc with a validator logging to slog.Default.
func Validate(doc model.Document) []FieldError {
	return defaultValidator().Validate(doc)
}

// Validate returns the problems of a compiled document. Abstract documents
// are folders: their problems are logged and nil is returned.
func (v *Validator) Validate(doc model.Document) []FieldError {
	errs := v.Check(doc)
	if len(errs) > 0 && doc.IsAbstract() {
		v.logger.Info("abstract document is incomplete", "name", doc.Name(), "problems", len(errs))
		return nil
	}
	return errs
}

// Check returns every problem of doc regardless of its abstract flag.
func (v *Validator) Check(doc model.Document) []FieldError {
	raw, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	var errs []FieldError
	errs = append(errs, v.check(raw, &Common{})...)
	if target := typed(doc); target != nil {
		errs = append(errs, v.check(raw, target)...)
	}
	return dedup(errs)
}

// typed returns the type specific struct for doc, or nil.
func typed(doc model.Document) any {
	switch doc.String("type") {
	case model.TypeFuture:
		if _, ok := doc["legs"]; ok {
			return &Spread{}
		}
		return &Future{}
	case model.TypeSpread:
		return &Spread{}
	case model.TypeCalendarSpread:
		return &CalendarSpread{}
	case model.TypeOption:
		return &Option{}
	default:
		return nil
	}
}

func (v *Validator) check(raw []byte, target any) []FieldError {
	var errs []FieldError

	if err := json.Unmarshal(raw, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return []FieldError{{Message: err.Error()}}
		}
		errs = append(errs, FieldError{
			Field:   strings.ReplaceAll(typeErr.Field, ".", "/"),
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		})
	}

	err := v.validate.Struct(target)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			errs = append(errs, FieldError{Field: fieldPath(fe.Namespace()), Message: message(fe)})
		}
	}
	return errs
}

// fieldPath turns "Future.maturityDate.month" into "maturityDate/month".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.NewReplacer("[", "/", "]", "").Replace(namespace)
	return strings.ReplaceAll(namespace, ".", "/")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "clock":
		return "must be HH:MM:SS"
	case "min", "max", "gt":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	default:
		return "failed " + fe.Tag()
	}
}

func dedup(errs []FieldError) []FieldError {
	seen := make(map[FieldError]bool, len(errs))
	out := errs[:0]
	for _, e := range errs {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
