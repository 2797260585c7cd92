package shipment

import "errors"

var (
	// ErrUnauthenticated is returned when a write is attempted without an identity.
	ErrUnauthenticated = errors.New("shipment: no active identity")
	// ErrInvalidInput is returned when shipment parameters fail validation.
	ErrInvalidInput = errors.New("shipment: invalid input")
	// ErrNotFound is returned when no shipment exists at the given index.
	ErrNotFound = errors.New("shipment: not found")
	// ErrUnauthorized is returned when the caller is not the shipment's sender.
	ErrUnauthorized = errors.New("shipment: caller is not the sender")
	// ErrInvalidTransition is returned when a status precondition is not met.
	ErrInvalidTransition = errors.New("shipment: invalid status transition")
	// ErrNilShipment is returned when saving a nil shipment.
	ErrNilShipment = errors.New("shipment: nil shipment")
)
