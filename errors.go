package cabinet

import "errors"

var (
	// ErrInvalidInput is returned when input validation fails before either store is touched
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a metadata record does not exist
	ErrNotFound = errors.New("not found")
	// ErrObjectMissing is returned when a metadata record exists but its bytes are gone from the object store
	ErrObjectMissing = errors.New("object missing")
	// ErrStorageWrite is returned when an object-store write fails
	ErrStorageWrite = errors.New("storage write failed")
	// ErrStorageDelete is returned when an object-store delete fails
	ErrStorageDelete = errors.New("storage delete failed")
	// ErrInternal is returned when an unclassified internal error occurs
	ErrInternal = errors.New("internal error")
)
