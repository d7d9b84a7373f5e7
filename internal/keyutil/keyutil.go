// Package keyutil provides validation and normalization for the caller
// supplied parts of a lock key.
package keyutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ebogdum/lockservice/locks"
)

// MaxComponentLength bounds namespaces, business ids and owner fields.
const MaxComponentLength = 256

// ErrInvalidArgument is wrapped by every validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

// NormalizeNamespace trims the namespace and substitutes
// locks.DefaultNamespace when it is empty.
func NormalizeNamespace(namespace string) string {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return locks.DefaultNamespace
	}
	return namespace
}

// ValidateNamespace checks a normalized namespace. Namespaces may not
// contain ':' so that "namespace:business_id" keys stay unambiguous.
func ValidateNamespace(namespace string) error {
	if err := ValidateComponent("namespace", namespace); err != nil {
		return err
	}
	if strings.Contains(namespace, ":") {
		return fmt.Errorf("%w: namespace must not contain ':'", ErrInvalidArgument)
	}
	return nil
}

// ValidateComponent checks that value is non-empty, bounded, valid UTF-8
// and free of control characters.
func ValidateComponent(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
	}
	if len(value) > MaxComponentLength {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidArgument, field, MaxComponentLength)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidArgument, field)
	}
	for _, char := range value {
		if char < 32 || char == 127 {
			return fmt.Errorf("%w: %s contains control characters", ErrInvalidArgument, field)
		}
	}
	return nil
}

// ValidateTimeout checks that a timeout is between 1 and maxSeconds.
// A non-positive maxSeconds disables the upper bound.
func ValidateTimeout(seconds, maxSeconds int64) error {
	if seconds < 1 {
		return fmt.Errorf("%w: timeout must be at least 1 second", ErrInvalidArgument)
	}
	if maxSeconds > 0 && seconds > maxSeconds {
		return fmt.Errorf("%w: timeout must not exceed %d seconds", ErrInvalidArgument, maxSeconds)
	}
	return nil
}
