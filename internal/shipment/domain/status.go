package shipment

// Status is the lifecycle state of a shipment. The numeric values are part
// of the chain contract and must not be reordered.
type Status int

const (
	StatusPending   Status = 0
	StatusInTransit Status = 1
	StatusDelivered Status = 2
)

// ParseStatus validates a raw status code.
func ParseStatus(code int) (Status, bool) {
	switch Status(code) {
	case StatusPending, StatusInTransit, StatusDelivered:
		return Status(code), true
	default:
		return 0, false
	}
}

// String returns the canonical label for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusInTransit:
		return "IN_TRANSIT"
	case StatusDelivered:
		return "DELIVERED"
	default:
		return "UNKNOWN"
	}
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
// Transitions are forward-only and never skip a state.
func (s Status) CanTransitionTo(next Status) bool {
	return next == s+1 && next <= StatusDelivered
}
