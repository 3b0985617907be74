package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stocked drug or consumable. The engine only reads stock
// levels; receiving and dispensing are owned by the pharmacy subsystem.
type Item struct {
	ID               uuid.UUID `json:"id"`
	FacilityID       uuid.UUID `json:"facility_id"`
	Name             string    `json:"name"`
	Unit             string    `json:"unit"`
	QuantityOnHand   int       `json:"quantity_on_hand"`
	ReorderThreshold int       `json:"reorder_threshold"`
	UpdatedAt        time.Time `json:"updated_at"`
}
