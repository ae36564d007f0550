package dtos

import (
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
)

/*
MarkerDTO is one map pin: a unique address with every unit listed there.
Units at the same address share a pin the way they share a building.
*/
type MarkerDTO struct {
	Address   string          `json:"address"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Units     []MarkerUnitDTO `json:"units"`
}

/*
MarkerUnitDTO is the popup payload for one unit: display fields plus its
resolved floor-plan documents.
*/
type MarkerUnitDTO struct {
	Unit           string        `json:"unit,omitempty"`
	PriceDisplay   string        `json:"price_display,omitempty"`
	Bedrooms       int           `json:"bedrooms,omitempty"`
	Bathrooms      int           `json:"bathrooms,omitempty"`
	Showers        int           `json:"showers,omitempty"`
	LivingRoomSize int           `json:"living_room_size,omitempty"`
	BalconyFaces   string        `json:"balcony_faces,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	Documents      []DocumentDTO `json:"documents"`
	HasFloorPlan   bool          `json:"has_floor_plan"`
}

/*
MapDataResponse feeds the map page: markers, where to center, and the
counters/warnings the page surfaces next to the layer control.
*/
type MapDataResponse struct {
	Markers      []MarkerDTO     `json:"markers"`
	Center       models.GeoPoint `json:"center"`
	Zoom         int             `json:"zoom"`
	SkippedRows  int             `json:"skipped_rows"`
	Ungeocodable int             `json:"ungeocodable"`
	Warnings     []string        `json:"warnings,omitempty"`
}
