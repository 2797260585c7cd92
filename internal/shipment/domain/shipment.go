package shipment

import (
	"strconv"
	"strings"
	"time"
)

// Shipment is a tracked goods transfer between a sender and a receiver.
// DeliveryTime stays zero and IsPaid stays false until the shipment is
// completed; only lifecycle methods may advance Status.
type Shipment struct {
	Sender       string
	Receiver     string
	PickupTime   time.Time
	DeliveryTime time.Time
	Distance     float64
	Price        string
	Status       Status
	IsPaid       bool
	CreatedAt    time.Time
}

// New validates inputs and builds a pending shipment.
func New(sender, receiver string, pickupTime time.Time, distance float64, price string, now time.Time) (*Shipment, error) {
	if sender == "" {
		return nil, ErrUnauthenticated
	}
	if receiver == "" {
		return nil, ErrInvalidInput
	}
	if distance < 0 {
		return nil, ErrInvalidInput
	}
	if !ValidPrice(price) {
		return nil, ErrInvalidInput
	}
	return &Shipment{
		Sender:     sender,
		Receiver:   receiver,
		PickupTime: pickupTime,
		Distance:   distance,
		Price:      strings.TrimSpace(price),
		Status:     StatusPending,
		CreatedAt:  now,
	}, nil
}

// ValidPrice reports whether price parses as a non-negative decimal.
func ValidPrice(price string) bool {
	value, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return false
	}
	return value >= 0
}

// Start moves a pending shipment into transit and refreshes pickup time.
func (s *Shipment) Start(caller string, now time.Time) error {
	if s == nil {
		return ErrNilShipment
	}
	if s.Sender != caller {
		return ErrUnauthorized
	}
	if !s.Status.CanTransitionTo(StatusInTransit) {
		return ErrInvalidTransition
	}
	s.Status = StatusInTransit
	s.PickupTime = now
	return nil
}

// Complete delivers an in-transit shipment, sets delivery time and marks it paid.
func (s *Shipment) Complete(caller string, now time.Time) error {
	if s == nil {
		return ErrNilShipment
	}
	if s.Sender != caller {
		return ErrUnauthorized
	}
	if !s.Status.CanTransitionTo(StatusDelivered) {
		return ErrInvalidTransition
	}
	s.Status = StatusDelivered
	s.DeliveryTime = now
	s.IsPaid = true
	return nil
}

// Clone returns a detached copy.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	copy := *s
	return &copy
}
