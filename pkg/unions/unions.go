// Package unions holds the runtime support shared by code generated with
// union-gen. Generated unions import it only for the error values they
// report, so it depends on nothing outside the standard library.
package unions

import (
	"errors"
	"fmt"
)

// Discriminant is implemented by every generated case enumeration.
type Discriminant interface {
	fmt.Stringer
}

// ErrWrongCase is matched by every WrongCaseError.
var ErrWrongCase = errors.New("unions: wrong case")

// WrongCaseError is returned by Get<Case> accessors when the union holds a
// different case than the one requested.
type WrongCaseError struct {
	Union string
	Want  Discriminant
	Got   Discriminant
}

// WrongCase builds the error returned by a mismatched Get<Case> call.
func WrongCase(union string, want, got Discriminant) error {
	return &WrongCaseError{Union: union, Want: want, Got: got}
}

func (e *WrongCaseError) Error() string {
	return fmt.Sprintf("unions: cannot get %s from %s %s", e.Want, e.Union, e.Got)
}

// Is reports whether target is ErrWrongCase.
func (e *WrongCaseError) Is(target error) bool {
	return target == ErrWrongCase
}

// InvalidCaseError is the panic value raised when a union carries a
// discriminant outside its declared cases. It can only happen when the
// storage of a union value has been corrupted, for example through unsafe.
type InvalidCaseError struct {
	Union string
	Case  Discriminant
}

// InvalidCase builds the panic value for an undeclared discriminant.
func InvalidCase(union string, c Discriminant) *InvalidCaseError {
	return &InvalidCaseError{Union: union, Case: c}
}

func (e *InvalidCaseError) Error() string {
	return fmt.Sprintf("unions: invalid %s case %s", e.Union, e.Case)
}

// MissingFallbackError is the panic value raised by a partial dispatch that
// reaches its fallback when no fallback was supplied.
type MissingFallbackError struct {
	Union string
	Case  Discriminant
}

// MissingFallback builds the panic value for a nil fallback handler.
func MissingFallback(union string, c Discriminant) *MissingFallbackError {
	return &MissingFallbackError{Union: union, Case: c}
}

func (e *MissingFallbackError) Error() string {
	return fmt.Sprintf("unions: no %s handler for case %s and no fallback", e.Union, e.Case)
}
