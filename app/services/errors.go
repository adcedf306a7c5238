package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound          = repositories.ErrNotFound
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotOwner          = errors.New("resource belongs to another user")
	ErrReferenceNotFound = errors.New("referenced record not found")
)

// FieldError is one failed check on one input field.
type FieldError struct {
	Field   string
	Type    string
	Message string
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ByField keeps the first message per field, for form rendering.
func (v ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

func invalid(field, typ, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Type: typ, Message: message}}
}

// ReferenceError names the input field whose id did not resolve.
type ReferenceError struct {
	Field string
	ID    uint
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %d", ErrReferenceNotFound, e.Field, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	return ErrReferenceNotFound
}

// validateStruct runs the validator and converts its errors.
func validateStruct(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := helpers.FormatValidationErrors(verrs)
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		typ := fe.Tag()
		if typ == "required" {
			typ = "missing"
		}
		out = append(out, FieldError{Field: fe.Field(), Type: typ, Message: messages[fe.Field()]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
