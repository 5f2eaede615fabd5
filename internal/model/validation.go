package model

import (
    "errors"
    "reflect"
    "strings"
    "sync"

    "github.com/go-playground/validator/v10"
)

// FieldViolation describes a single rejected field.  Field is the JSON path
// of the offending value, e.g. "travelers[1].gender" or "pricing.finalAmount".
type FieldViolation struct {
    Field   string `json:"field"`
    Rule    string `json:"rule"`
    Message string `json:"message"`
}

// ValidationErrors is returned when an entity fails validation.  Handlers
// render it as a 400 with the full list.
type ValidationErrors []FieldViolation

func (v ValidationErrors) Error() string {
    if len(v) == 0 {
        return "validation failed"
    }
    parts := make([]string, 0, len(v))
    for _, fv := range v {
        parts = append(parts, fv.Field+" "+fv.Message)
    }
    return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a violation built from its parts.
func (v *ValidationErrors) Add(field, rule, message string) {
    *v = append(*v, FieldViolation{Field: field, Rule: rule, Message: message})
}

// OrNil returns nil for an empty list so callers can return it as an error.
func (v ValidationErrors) OrNil() error {
    if len(v) == 0 {
        return nil
    }
    return v
}

// AsValidation unwraps err into a ValidationErrors list.
func AsValidation(err error) (ValidationErrors, bool) {
    var v ValidationErrors
    if errors.As(err, &v) {
        return v, true
    }
    return nil, false
}

var (
    validateOnce sync.Once
    validate     *validator.Validate
)

// structValidator returns the shared validator configured to report JSON
// field names instead of Go field names.
func structValidator() *validator.Validate {
    validateOnce.Do(func() {
        validate = validator.New()
        validate.RegisterTagNameFunc(func(f reflect.StructField) string {
            name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
            if name == "-" {
                return ""
            }
            return name
        })
    })
    return validate
}

// checkStruct runs the tag rules on s and converts failures into violations.
func checkStruct(s any) ValidationErrors {
    var out ValidationErrors
    err := structValidator().Struct(s)
    if err == nil {
        return out
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        out.Add("", "invalid", err.Error())
        return out
    }
    for _, fe := range verrs {
        out.Add(fieldPath(fe.Namespace()), fe.Tag(), ruleMessage(fe.Tag(), fe.Param()))
    }
    return out
}

// fieldPath drops the leading struct name from a validator namespace.
func fieldPath(ns string) string {
    if i := strings.IndexByte(ns, '.'); i >= 0 {
        return ns[i+1:]
    }
    return ns
}

func ruleMessage(tag, param string) string {
    switch tag {
    case "required":
        return "is required"
    case "oneof":
        return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
    case "min":
        return "must be at least " + param
    case "max":
        return "must be at most " + param
    case "decimals":
        return "must have at most " + param + " decimal places"
    case "email":
        return "must be a valid email address"
    case "url":
        return "must be a valid URL"
    }
    return "is invalid"
}
