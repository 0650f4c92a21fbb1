package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. The set is closed: every error a service returns is
// one of these kinds, or a storage error wrapping the underlying cause.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindInvalidDiscount   Kind = "invalid_discount"
	KindDuplicateKey      Kind = "duplicate_key"
	KindInvalidState      Kind = "invalid_state"
	KindStorage           Kind = "storage_error"
	KindForbidden         Kind = "forbidden"
	KindUnauthorized      Kind = "unauthorized"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrInvalidDiscount   = &Error{Kind: KindInvalidDiscount}
	ErrDuplicateKey      = &Error{Kind: KindDuplicateKey}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrStorage           = &Error{Kind: KindStorage}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
)

// Error is a typed failure with enough context to render an actionable message.
type Error struct {
	Kind   Kind
	Entity string
	ID     uint
	Field  string
	Value  any
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch {
	case e.Entity != "" && e.ID != 0:
		return fmt.Sprintf("%s: %s %d", e.Kind, e.Entity, e.ID)
	case e.Field != "":
		return fmt.Sprintf("%s: %s=%v", e.Kind, e.Field, e.Value)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so callers can write errors.Is(err, apierror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) meta() map[string]any {
	m := map[string]any{}
	if e.Entity != "" {
		m["entity"] = e.Entity
	}
	if e.ID != 0 {
		m["id"] = e.ID
	}
	if e.Field != "" {
		m["field"] = e.Field
	}
	if e.Value != nil {
		m["value"] = e.Value
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// As extracts the *Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindDuplicateKey, KindInvalidState:
		return http.StatusConflict
	case KindInvalidDiscount:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ── Constructors ─────────────────────────────────────────────────────────────

func Validation(field string, value any, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Value: value, Msg: msg}
}

func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id,
		Msg: fmt.Sprintf("%s %d not found", entity, id)}
}

// NotFoundBy is NotFound for lookups by a non-id key (username, national id).
func NotFoundBy(entity, field string, value any) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Field: field, Value: value,
		Msg: fmt.Sprintf("%s with %s %v not found", entity, field, value)}
}

func InsufficientStock(productID uint, requested, available int) *Error {
	return &Error{
		Kind:   KindInsufficientStock,
		Entity: "product",
		ID:     productID,
		Field:  "quantity",
		Value:  requested,
		Msg: fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
			productID, requested, available),
	}
}

func InvalidDiscount(value any, msg string) *Error {
	return &Error{Kind: KindInvalidDiscount, Field: "discount_percent", Value: value, Msg: msg}
}

func Duplicate(entity, field string, value any) *Error {
	return &Error{Kind: KindDuplicateKey, Entity: entity, Field: field, Value: value,
		Msg: fmt.Sprintf("%s with %s %v already exists", entity, field, value)}
}

func InvalidState(entity string, id uint, state, op string) *Error {
	return &Error{Kind: KindInvalidState, Entity: entity, ID: id, Field: "status", Value: state,
		Msg: fmt.Sprintf("cannot %s %s %d in status %s", op, entity, id, state)}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Storage wraps a persistence failure. op names the failed operation.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: "storage failure: " + op, Err: err}
}
