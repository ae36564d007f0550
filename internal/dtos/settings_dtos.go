package dtos

import (
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
)

/*
SettingsResponse mirrors the session's SourceSettings with the API key
redacted to a presence flag.
*/
type SettingsResponse struct {
	Mode      models.SourceMode `json:"mode"`
	LocalRoot string            `json:"local_root,omitempty"`
	FolderID  string            `json:"folder_id,omitempty"`
	HasAPIKey bool              `json:"has_api_key"`
}

/*
UpdateSettingsRequest carries partial updates; nil fields stay untouched.
Folder accepts a bare ID or a full shareable URL. Changing Folder or
APIKey invalidates the session's remote folder index.
*/
type UpdateSettingsRequest struct {
	Mode      *string `json:"mode,omitempty" validate:"omitempty,oneof=local remote"`
	LocalRoot *string `json:"local_root,omitempty"`
	APIKey    *string `json:"api_key,omitempty"`
	Folder    *string `json:"folder,omitempty"`
}
