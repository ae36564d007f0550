package models

type SourceMode string

const (
	SourceModeLocal  SourceMode = "local"
	SourceModeRemote SourceMode = "remote"
)

// SourceSettings is the explicit document-source configuration: which mode
// is active, where the local folder lives, and the Drive credentials for
// remote mode. APIKey never serializes; the settings endpoint reports only
// whether one is present.
type SourceSettings struct {
	Mode      SourceMode `json:"mode"`
	LocalRoot string     `json:"local_root,omitempty"`
	APIKey    string     `json:"-"`
	// FolderID is the extracted Drive folder ID (never the raw URL).
	FolderID string `json:"folder_id,omitempty"`
}

// RemoteConfigured reports whether remote mode has everything it needs.
func (s SourceSettings) RemoteConfigured() bool {
	return s.APIKey != "" && s.FolderID != ""
}
