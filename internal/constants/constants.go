package constants

import (
	"time"
)

// Workbook layout
const (
	PreferredSheetName = "דירוג" // ranking sheet in the family workbook
	FirstDataColumn    = 3       // zero-based; columns A-C are a rating scratch area
)

// Column headers, as written in the workbook's header row.
const (
	ColAddress        = "Address"
	ColUnit           = "Unit"
	ColPrice          = "Price"
	ColBedrooms       = "Bedrooms"
	ColBathrooms      = "Bathrooms"
	ColShowers        = "Showers"
	ColLivingRoomSize = "Living Room Size (1-5)"
	ColBalconyFaces   = "Balcony Faces"
	ColFloorPlan      = "Floor Plan PDF"
	ColNotes          = "Notes"
)

// Geocoding
const (
	GeocodeCity       = "תל אביב" // all listings are here
	GeocodeCityLatin  = "tel aviv"
	GeocodeCountry    = "Israel"
	GeocodeUserAgent  = "moms-apartments-map/1.0"
	GeocodeTimeout    = 10 * time.Second
	NominatimBaseURL  = "https://nominatim.openstreetmap.org/search"
	ArcGISBaseURL     = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"
	NominatimMinDelay = 1100 * time.Millisecond // usage policy: about 1 req/s
)

// Map defaults
const (
	DefaultZoom = 13
	// Used only until the first listing geocodes.
	FallbackCenterLat = 32.0853
	FallbackCenterLng = 34.7818
	// How many failed addresses the geocode warning spells out.
	MaxGeocodeWarnAddresses = 3
)

// Remote folder (Drive)
const (
	DriveListPageSize  = 1000
	DrivePreviewURLFmt = "https://drive.google.com/file/d/%s/preview"
	DriveViewURLFmt    = "https://drive.google.com/file/d/%s/view"
)

// Sessions and uploads
const (
	SessionCookieName = "apartments_session"
	SessionTTL        = 12 * time.Hour
	MaxUploadBytes    = 25 << 20 // workbook and floor-plan uploads
	PlansDirName      = "plans"  // under the session upload dir
)

// DefaultLocalRootCandidates are tried in order when no local floor-plan
// folder is configured, matching where the family keeps the files.
var DefaultLocalRootCandidates = []string{"data/pdfs", "pdfs"}
