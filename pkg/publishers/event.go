package publishers

import (
	"time"

	"github.com/Adda-Baaj/vpic-harvester/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	SourceID    string                `json:"source_id"`
	Vehicle     domain.DecodedVehicle `json:"vehicle"`
	CollectedAt time.Time             `json:"collected_at"`
}

// NewEvent wraps a decoded vehicle for the given source.
func NewEvent(sourceID string, vehicle domain.DecodedVehicle) Event {
	return Event{
		SourceID:    sourceID,
		Vehicle:     vehicle,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are attached to queue and topic messages for subscriber filtering.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{"source_id": e.SourceID}
	if e.Vehicle.VIN != "" {
		attrs["vin"] = e.Vehicle.VIN
	}
	if e.Vehicle.Make != "" {
		attrs["make"] = e.Vehicle.Make
	}
	return attrs
}
