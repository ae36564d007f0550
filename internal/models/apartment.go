package models

// ApartmentRecord is one listing row from the workbook. Address doubles as
// the geocoding key and the document-matching key, so it must be non-empty;
// rows without one are skipped at ingestion and counted.
type ApartmentRecord struct {
	Address           string  `json:"address" validate:"required"`
	Unit              string  `json:"unit,omitempty"`
	Price             float64 `json:"price,omitempty"`
	PriceDisplay      string  `json:"price_display,omitempty"`
	Bedrooms          int     `json:"bedrooms,omitempty"`
	Bathrooms         int     `json:"bathrooms,omitempty"`
	Showers           int     `json:"showers,omitempty"`
	LivingRoomSize    int     `json:"living_room_size,omitempty" validate:"omitempty,min=1,max=5"`
	BalconyFaces      string  `json:"balcony_faces,omitempty"`
	DocumentReference string  `json:"document_reference,omitempty"`
	Notes             string  `json:"notes,omitempty"`

	// Source row in the sheet, for diagnostics only.
	Row int `json:"row,omitempty"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
