package domain

import "time"

// LocationType is the kind of stocking point a snapshot belongs to.
type LocationType string

const (
	LocationTypeBrand         LocationType = "BRAND"
	LocationTypeDistributor   LocationType = "DISTRIBUTOR"
	LocationTypeServiceCenter LocationType = "SERVICE_CENTER"
)

// InventoryLocation is a point-in-time stock snapshot at one location.
type InventoryLocation struct {
	LocationID   string       `json:"location_id"`
	LocationType LocationType `json:"location_type"`
	Quantity     int          `json:"quantity"`
	Reserved     int          `json:"reserved"`
	Available    int          `json:"available"`
	LastUpdated  time.Time    `json:"last_updated"`
}

// GlobalInventoryView aggregates per-location snapshots for one part.
// It is eventually consistent and must never back a financial decision.
type GlobalInventoryView struct {
	PartID         string              `json:"part_id"`
	Locations      []InventoryLocation `json:"locations"`
	TotalAvailable int                 `json:"total_available"`
	FetchedAt      time.Time           `json:"fetched_at"`
	Stale          bool                `json:"stale,omitempty"`
}

// InventoryEventType classifies broadcast inventory changes.
type InventoryEventType string

const (
	InventoryEventReserved InventoryEventType = "RESERVED"
	InventoryEventReleased InventoryEventType = "RELEASED"
	InventoryEventUpdated  InventoryEventType = "UPDATED"
)

// InventoryEvent is the typed payload broadcast when stock changes at the
// inventory of record. The cache invalidates the affected part on receipt.
type InventoryEvent struct {
	Type       InventoryEventType `json:"type"`
	PartID     string             `json:"part_id"`
	LocationID string             `json:"location_id,omitempty"`
	Quantity   int                `json:"quantity,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// BalanceChangedEvent announces a committed wallet movement to downstream
// notification dispatch. Delivery is best-effort; a dispatch failure never
// reverses the committed ledger transaction.
type BalanceChangedEvent struct {
	OwnerID       string          `json:"owner_id"`
	TransactionID string          `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	Amount        string          `json:"amount"`
	BalanceAfter  string          `json:"balance_after"`
	Reference     string          `json:"reference"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
