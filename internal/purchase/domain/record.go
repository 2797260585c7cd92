package purchase

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlanType is the pricing tier of a purchased service.
type PlanType string

const (
	PlanBasic    PlanType = "basic"
	PlanStandard PlanType = "standard"
	PlanPremium  PlanType = "premium"
)

// ParsePlanType validates a plan name against the closed tier set.
func ParsePlanType(value string) (PlanType, error) {
	switch PlanType(value) {
	case PlanBasic, PlanStandard, PlanPremium:
		return PlanType(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, value)
	}
}

// Ordinal returns the numeric tier used on the wire by the settlement
// contract: basic 0, standard 1, premium 2.
func (p PlanType) Ordinal() int {
	switch p {
	case PlanStandard:
		return 1
	case PlanPremium:
		return 2
	default:
		return 0
	}
}

// Record is one purchased service entry. BusinessType outside the
// known 1..4 range is preserved as stored; display resolves it to a
// fallback label instead of rejecting the record.
type Record struct {
	ID           string
	ServiceID    int
	Plan         PlanType
	BusinessType int
	PurchaseDate time.Time
}

// NewRecord builds a validated purchase record.
func NewRecord(serviceID int, plan PlanType, businessType int, now time.Time) (*Record, error) {
	if serviceID < MinServiceID || serviceID > MaxServiceID {
		return nil, fmt.Errorf("%w: service id %d", ErrUnknownService, serviceID)
	}
	if _, err := ParsePlanType(string(plan)); err != nil {
		return nil, err
	}
	if businessType <= 0 {
		return nil, fmt.Errorf("%w: business type %d", ErrInvalidInput, businessType)
	}
	return &Record{
		ID:           uuid.NewString(),
		ServiceID:    serviceID,
		Plan:         plan,
		BusinessType: businessType,
		PurchaseDate: now.UTC(),
	}, nil
}

// Catalog bounds for service identifiers.
const (
	MinServiceID = 1
	MaxServiceID = 8
)

// Clone returns a detached copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}
