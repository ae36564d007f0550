package dtos

import (
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
)

/*
ListingsResponse is the tabular view of the loaded workbook: every record
that survived ingestion, plus the counters the UI surfaces.
*/
type ListingsResponse struct {
	Listings    []models.ApartmentRecord `json:"listings"`
	SkippedRows int                      `json:"skipped_rows"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

/*
WorkbookStatusResponse answers uploads and reloads.
*/
type WorkbookStatusResponse struct {
	Workbook    string `json:"workbook"`
	Loaded      int    `json:"loaded"`
	SkippedRows int    `json:"skipped_rows"`
}

/*
NearestListingResponse answers "what is closest to this point".
*/
type NearestListingResponse struct {
	Listing    models.ApartmentRecord `json:"listing"`
	Latitude   float64                `json:"latitude"`
	Longitude  float64                `json:"longitude"`
	DistanceKm float64                `json:"distance_km"`
}
