package routes

const (
	// Health
	Health = "/health"

	// Map page (HTML)
	MapPage = "/"

	// Listings
	ListingsBase    = "/api/v1/listings"
	ListingsUpload  = "/api/v1/listings/upload"
	ListingsReload  = "/api/v1/listings/reload"
	ListingsNearest = "/api/v1/listings/nearest"

	// Map payloads
	MapData   = "/api/v1/map-data"
	MapExport = "/api/v1/map/export"

	// Floor-plan documents
	DocumentsResolve  = "/api/v1/documents/resolve"
	DocumentsUpload   = "/api/v1/documents/upload"
	DocumentsView     = "/api/v1/documents/view"
	DocumentsDownload = "/api/v1/documents/download"

	// Document source settings
	Settings = "/api/v1/settings"
)
