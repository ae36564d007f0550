package models

// RemoteFolderIndex caches one remote folder listing for a session:
// filename as listed (with extension, deliberately case- and
// whitespace-sensitive) to the file IDs carrying that name. It is rebuilt
// only when Key stops matching the active folder identity, and a failed
// build is remembered so the listing is attempted once per session, not
// once per row.
type RemoteFolderIndex struct {
	Key     string
	Entries map[string][]string
	Built   bool
	Failed  bool
	Warning string
}

// RemoteIndexKey is the folder identity an index was built against.
// Changing either the folder or the API key invalidates the index.
func RemoteIndexKey(apiKey, folderID string) string {
	return folderID + "|" + apiKey
}

// CurrentFor reports whether the index (built or failed) belongs to the
// given folder identity.
func (ix *RemoteFolderIndex) CurrentFor(key string) bool {
	return ix != nil && ix.Key == key && (ix.Built || ix.Failed)
}
