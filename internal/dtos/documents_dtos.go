package dtos

import (
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
)

/*
DocumentDTO is one viewable floor-plan asset. ViewURL and DownloadURL go
through this service, which re-resolves the record server-side; the client
never passes raw file paths around. Drive documents additionally carry the
drive.google.com preview/view links.
*/
type DocumentDTO struct {
	Index           int               `json:"index"`
	FileName        string            `json:"file_name"`
	SourceKind      models.SourceKind `json:"source_kind"`
	MimeHint        string            `json:"mime_hint"`
	ViewURL         string            `json:"view_url"`
	DownloadURL     string            `json:"download_url"`
	DrivePreviewURL string            `json:"drive_preview_url,omitempty"`
	DriveViewURL    string            `json:"drive_view_url,omitempty"`
}

/*
ResolveDocumentsResponse lists everything that matched one record.
HasFloorPlan false means the UI shows the "no floor plan available"
indicator; it is never an error.
*/
type ResolveDocumentsResponse struct {
	Address      string        `json:"address"`
	Documents    []DocumentDTO `json:"documents"`
	HasFloorPlan bool          `json:"has_floor_plan"`
}

/*
UploadPlansResponse reports a floor-plan upload: the files now in this
session's matching pool.
*/
type UploadPlansResponse struct {
	Stored    int      `json:"stored"`
	FileNames []string `json:"file_names"`
}
