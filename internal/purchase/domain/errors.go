package purchase

import "errors"

var (
	// ErrUnauthenticated is returned when no wallet address is supplied.
	ErrUnauthenticated = errors.New("purchase: wallet address required")
	// ErrInvalidInput is returned when a purchase field fails validation.
	ErrInvalidInput = errors.New("purchase: invalid input")
	// ErrUnknownService is returned for service ids outside the catalog.
	ErrUnknownService = errors.New("purchase: unknown service")
	// ErrUnknownPlan is returned for plan names outside the closed set.
	ErrUnknownPlan = errors.New("purchase: unknown plan")
	// ErrPersistence is returned when the backing store fails to save.
	ErrPersistence = errors.New("purchase: persistence failure")
)
