package application

import "time"

// ShipmentCreated is emitted after a shipment is confirmed and appended.
type ShipmentCreated struct {
	Index      int
	Sender     string
	Receiver   string
	Distance   float64
	Price      string
	TxHash     string
	OccurredAt time.Time
}

// ShipmentStarted is emitted when a shipment enters transit.
type ShipmentStarted struct {
	Index      int
	Sender     string
	TxHash     string
	OccurredAt time.Time
}

// ShipmentDelivered is emitted when a shipment is delivered and paid.
type ShipmentDelivered struct {
	Index      int
	Sender     string
	Receiver   string
	Price      string
	TxHash     string
	OccurredAt time.Time
}
