package heifgainmap

import "errors"

var (
	// ErrInputRead is returned when a source image or gain map cannot be decoded.
	ErrInputRead = errors.New("input read failure")
	// ErrShapeMismatch is returned when the gain map does not match the base image.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrOutputWrite is returned when the destination container cannot be serialized.
	ErrOutputWrite = errors.New("output write failure")
	// ErrInvalidBuffer is returned for malformed buffers.
	ErrInvalidBuffer = errors.New("invalid buffer")
	// ErrNonFinite is returned by the optional finite value check.
	ErrNonFinite = errors.New("non-finite sample")
	// ErrUnknownProfile is returned for unregistered output profile names.
	ErrUnknownProfile = errors.New("unknown output profile")
)
