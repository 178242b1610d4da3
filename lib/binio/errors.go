// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binio

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("binio: malformed input")

	// ErrCapacity matches every *CapacityError.
	ErrCapacity = errors.New("binio: replacement exceeds its slot")

	// ErrUnsupportedType matches every *UnsupportedTypeError.
	ErrUnsupportedType = errors.New("binio: unsupported type code")
)

// FormatError reports structurally invalid input at a byte offset.
type FormatError struct {
	// Offset is the position of the offending byte, relative to the
	// start of whatever buffer the reader was walking.
	Offset int
	Reason string
	// Err is the underlying cause, usually io.ErrUnexpectedEOF.
	Err error
}

// Formatf builds a *FormatError with a formatted reason.
func Formatf(offset int, format string, args ...any) *FormatError {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed input at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) Unwrap() error { return e.Err }

// CapacityError reports a replacement payload that does not fit the
// slot reserved for it. The slot is left untouched.
type CapacityError struct {
	What string
	Need int
	Have int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s needs %d bytes but only %d are reserved", e.What, e.Need, e.Have)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// UnsupportedTypeError reports a compression or encryption type code
// the patcher does not know how to re-encode.
type UnsupportedTypeError struct {
	What string
	Code uint32
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported %s type %d", e.What, e.Code)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }
