package purchase

import (
	"context"
	"encoding/json"
	"time"
)

// StorageKey is the fixed key the purchased-services list lives under.
const StorageKey = "looptrust_purchased_services"

// Store persists the full purchased-services list as one document.
// Load returns an empty list when nothing has been stored yet.
type Store interface {
	Load(ctx context.Context) ([]*Record, error)
	Save(ctx context.Context, records []*Record) error
}

type recordJSON struct {
	ID           string   `json:"id,omitempty"`
	ServiceID    int      `json:"serviceId"`
	Plan         PlanType `json:"planType"`
	BusinessType int      `json:"businessType"`
	PurchaseDate int64    `json:"purchaseDate"`
}

// MarshalJSON encodes the purchase date as unix milliseconds.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:           r.ID,
		ServiceID:    r.ServiceID,
		Plan:         r.Plan,
		BusinessType: r.BusinessType,
		PurchaseDate: r.PurchaseDate.UnixMilli(),
	})
}

// UnmarshalJSON accepts the stored document form.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire recordJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.ID = wire.ID
	r.ServiceID = wire.ServiceID
	r.Plan = wire.Plan
	r.BusinessType = wire.BusinessType
	if wire.PurchaseDate > 0 {
		r.PurchaseDate = time.UnixMilli(wire.PurchaseDate).UTC()
	} else {
		r.PurchaseDate = time.Time{}
	}
	return nil
}
