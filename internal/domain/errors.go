package domain

import "errors"

var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrResourceNotFound signals a missing study resource.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrUnknownCategory signals an unrecognized resource category.
	ErrUnknownCategory = errors.New("unknown resource category")
	// ErrInvalidResource signals an invalid resource definition.
	ErrInvalidResource = errors.New("invalid resource")
)
