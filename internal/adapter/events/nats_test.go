package events

import (
	"encoding/json"
	"testing"
	"time"

	"spareparts-billing/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventorySubject(t *testing.T) {
	assert.Equal(t, "inventory.events.reserved", InventorySubject(domain.InventoryEventReserved))
	assert.Equal(t, "inventory.events.released", InventorySubject(domain.InventoryEventReleased))
	assert.Equal(t, "inventory.events.updated", InventorySubject(domain.InventoryEventUpdated))
}

func TestDecodeInventoryEvent(t *testing.T) {
	payload, err := json.Marshal(domain.InventoryEvent{
		Type:       domain.InventoryEventReserved,
		PartID:     "PRT-100",
		LocationID: "WH-BLR-1",
		Quantity:   3,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	event, err := DecodeInventoryEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "PRT-100", event.PartID)
	assert.Equal(t, domain.InventoryEventReserved, event.Type)
	assert.Equal(t, 3, event.Quantity)
}

func TestDecodeInventoryEvent_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"type":`},
		{"missing part id", `{"type":"RESERVED"}`},
		{"unknown type", `{"type":"VAPORIZED","part_id":"PRT-1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeInventoryEvent([]byte(tc.payload))
			assert.Error(t, err)
		})
	}
}
