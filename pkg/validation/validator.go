package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Snapshot limits
	MaxIDLength       = 1024
	MaxNameLength     = 256
	MaxProperties     = 256
	MaxSnapshotNodes  = 50000
	MaxSnapshotEdges  = 200000
	MinSnapshotRecord = 0
)

func init() {
	validate = validator.New()
	// Report field names the way they appear on the wire.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
			return true
		}
		v := f.Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
	_ = validate.RegisterValidation("printable", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	})
}

// Struct validates a record using its `validate` struct tags and returns the
// first failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return errors.New("record cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateNodeID checks an inbound node identity key.
func ValidateNodeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("id: field is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("id: exceeds maximum length of %d characters", MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("id: %q contains control characters", id)
		}
	}
	return nil
}

// ValidateSnapshotSize rejects snapshots too large to lay out interactively.
func ValidateSnapshotSize(nodes, edges int) error {
	if nodes < MinSnapshotRecord || edges < MinSnapshotRecord {
		return fmt.Errorf("snapshot size cannot be negative (nodes=%d, edges=%d)", nodes, edges)
	}
	if nodes > MaxSnapshotNodes {
		return fmt.Errorf("snapshot has %d nodes, maximum is %d", nodes, MaxSnapshotNodes)
	}
	if edges > MaxSnapshotEdges {
		return fmt.Errorf("snapshot has %d edges, maximum is %d", edges, MaxSnapshotEdges)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "finite":
			return fmt.Errorf("%s: must be a finite number", field)
		case "printable":
			return fmt.Errorf("%s: contains non-printable characters", field)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
