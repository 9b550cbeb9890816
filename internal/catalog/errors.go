package catalog

import "errors"

// Domain errors for the catalog package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, catalog.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when an id is unknown or a delete filter matches nothing.
	ErrNotFound = errors.New("catalog: not found")

	// ErrInvalidDevice is returned when a device document fails validation.
	ErrInvalidDevice = errors.New("catalog: invalid device")

	// ErrInvalidService is returned when a service document fails validation.
	ErrInvalidService = errors.New("catalog: invalid service")

	// ErrInvalidFilter is returned when a filtered delete names no criteria.
	ErrInvalidFilter = errors.New("catalog: no deletion criteria")

	// ErrIDMismatch is returned when the addressed id differs from the body id.
	ErrIDMismatch = errors.New("catalog: id in path and body do not match")

	// ErrPersistence is returned when the store rejects a replace.
	// The in-memory directory is left at its pre-mutation state.
	ErrPersistence = errors.New("catalog: persistence failed")

	// ErrCorruptDocument is returned when the stored document cannot be parsed.
	ErrCorruptDocument = errors.New("catalog: corrupt document")
)
