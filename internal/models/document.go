package models

// SourceKind says where a resolved floor plan came from.
type SourceKind string

const (
	SourceExplicitPath SourceKind = "explicit-path"
	SourceLocalFolder  SourceKind = "local-folder"
	SourceRemoteFolder SourceKind = "remote-folder"
	// SourceUploaded marks a plan uploaded directly in this session.
	SourceUploaded SourceKind = "uploaded"
	SourceNotFound SourceKind = "not-found"
)

// SupportedExtensions is the matching order within one suffix index:
// pdf beats jpg beats jpeg.
var SupportedExtensions = []string{".pdf", ".jpg", ".jpeg"}

// MimeHintForExtension maps a supported extension (with leading dot,
// lower-case) to the content type served for it. Unknown extensions get
// application/octet-stream so the browser still offers a download.
func MimeHintForExtension(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// ResolvedDocument is the outcome of matching one record against the
// configured document sources. Computed on demand, never persisted.
type ResolvedDocument struct {
	SourceKind SourceKind `json:"source_kind"`
	// Local file path for explicit-path/local-folder, remote file ID for
	// remote-folder, empty for not-found.
	ResolvedLocator string `json:"resolved_locator,omitempty"`
	FileName        string `json:"file_name,omitempty"`
	MimeHint        string `json:"mime_hint,omitempty"`

	// Remote-only conveniences built from the file ID.
	PreviewURL string `json:"preview_url,omitempty"`
	ViewURL    string `json:"view_url,omitempty"`
}
