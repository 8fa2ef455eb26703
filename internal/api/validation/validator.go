package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sheegull/deephand-forms/internal/i18n"
	"github.com/sheegull/deephand-forms/internal/models"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// FieldErrors maps a JSON field name to a human-readable reason.
type FieldErrors map[string]string

// ValidationError carries the first violated rule of every invalid field.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validator checks sanitized submissions against the per-form schemas.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	RegisterValidators(v)
	return &Validator{validate: v}
}

// RegisterValidators registers custom validators
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("address", validateAddress)
	v.RegisterValidation("nonempty", validateNonEmpty)
	v.RegisterValidation("datatype", validateDataType)
}

// validateAddress checks local@domain syntax
func validateAddress(fl validator.FieldLevel) bool {
	return utils.IsValidEmailAddress(fl.Field().String())
}

// validateNonEmpty checks that a collection holds at least one entry
func validateNonEmpty(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return field.Len() > 0
	default:
		return !field.IsZero()
	}
}

// validateDataType checks that the value is one of the offered categories
func validateDataType(fl validator.FieldLevel) bool {
	return slices.Contains(models.DataTypeCategories, fl.Field().String())
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// Validate decodes sanitized fields into the typed record of the given form
// and checks it. Messages are rendered in loc.
func (v *Validator) Validate(form models.FormType, fields map[string]any, loc i18n.Locale) (models.Record, error) {
	switch form {
	case models.FormContact:
		var rec models.ContactSubmission
		if err := v.check(fields, &rec, loc); err != nil {
			return nil, err
		}
		return rec, nil
	case models.FormRequest:
		var rec models.DataRequestSubmission
		if err := v.check(fields, &rec, loc); err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unknown form type %q", form)
	}
}

// Struct validates an already-typed value, e.g. a gin-bound request.
func (v *Validator) Struct(value any, loc i18n.Locale) error {
	return v.translate(v.validate.Struct(value), loc, nil)
}

func (v *Validator) check(fields map[string]any, dst any, loc i18n.Locale) error {
	fieldErrs := FieldErrors{}

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return fmt.Errorf("failed to decode fields: %w", err)
		}
		// Unmarshal keeps going after a type mismatch; report it and validate the rest.
		field, _, _ := strings.Cut(typeErr.Field, ".")
		fieldErrs[field] = i18n.Message(loc, i18n.MsgInvalidType, field, "")
	}

	if rec, ok := dst.(*models.DataRequestSubmission); ok {
		rec.DataType = normalizeDataTypes(rec.DataType)
	}

	return v.translate(v.validate.Struct(dst), loc, fieldErrs)
}

func (v *Validator) translate(err error, loc i18n.Locale, fieldErrs FieldErrors) error {
	if fieldErrs == nil {
		fieldErrs = FieldErrors{}
	}

	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			field := fe.Field()
			if i := strings.IndexByte(field, '['); i >= 0 {
				field = field[:i]
			}
			if _, seen := fieldErrs[field]; seen {
				continue
			}
			fieldErrs[field] = message(loc, field, fe)
		}
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return &ValidationError{Fields: fieldErrs}
}

func message(loc i18n.Locale, field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "nonempty":
		return i18n.Message(loc, i18n.MsgRequired, field, "")
	case "max":
		return i18n.Message(loc, i18n.MsgMaxLength, field, fe.Param())
	case "address":
		return i18n.Message(loc, i18n.MsgEmail, field, "")
	case "datatype":
		return i18n.Message(loc, i18n.MsgDataType, field, "")
	default:
		return i18n.Message(loc, i18n.MsgInvalid, field, "")
	}
}

// normalizeDataTypes lowercases, trims and de-duplicates categories, keeping order.
func normalizeDataTypes(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
