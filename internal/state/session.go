package state

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

// Session is the per-browser working state: loaded records, counters, the
// active document-source settings, and the remote folder index. Everything
// here is recomputed from the workbook on demand and thrown away when the
// session expires; nothing persists.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time

	records      []models.ApartmentRecord
	skippedRows  int
	workbookPath string
	uploadDir    string
	plansDir     string

	settings    models.SourceSettings
	remoteIndex *models.RemoteFolderIndex

	warnings []string
	warned   map[string]bool
}

func (s *Session) touch() {
	s.lastSeen = time.Now()
}

// SetRecords replaces the loaded listings and the skipped-row counter.
func (s *Session) SetRecords(records []models.ApartmentRecord, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.records = records
	s.skippedRows = skipped
}

// Records returns the loaded listings plus the skipped-row counter.
func (s *Session) Records() ([]models.ApartmentRecord, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.records, s.skippedRows
}

// WorkbookPath is the active workbook for this session (uploaded one wins).
func (s *Session) WorkbookPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workbookPath
}

func (s *Session) SetWorkbookPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.workbookPath = path
}

// UploadDir lazily creates and returns this session's upload directory.
func (s *Session) UploadDir(parent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadDir != "" {
		return s.uploadDir, nil
	}
	dir, err := os.MkdirTemp(parent, "session-"+s.ID.String()+"-")
	if err != nil {
		return "", err
	}
	s.uploadDir = dir
	return dir, nil
}

// EnsurePlansDir lazily creates the directory for floor plans uploaded in
// this session. It lives under the upload dir, so the sweep removes both
// together.
func (s *Session) EnsurePlansDir(parent string) (string, error) {
	dir, err := s.UploadDir(parent)
	if err != nil {
		return "", err
	}
	plans := filepath.Join(dir, constants.PlansDirName)
	if err := os.MkdirAll(plans, 0o755); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.plansDir = plans
	s.mu.Unlock()
	return plans, nil
}

// PlansDir returns the uploaded floor-plans directory, or "" before the
// first plan upload.
func (s *Session) PlansDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plansDir
}

// Settings returns a copy of the active source settings.
func (s *Session) Settings() models.SourceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.settings
}

// UpdateSettings applies fn to the settings under the session lock.
func (s *Session) UpdateSettings(fn func(*models.SourceSettings)) models.SourceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	fn(&s.settings)
	return s.settings
}

// RemoteIndex returns the cached index, which may be stale for the current
// folder identity; callers check CurrentFor before trusting it.
func (s *Session) RemoteIndex() *models.RemoteFolderIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteIndex
}

func (s *Session) SetRemoteIndex(ix *models.RemoteFolderIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteIndex = ix
}

// InvalidateRemoteIndex drops the cached folder listing. Called when the
// folder identity changes; the next remote resolution lists the new folder
// exactly once.
func (s *Session) InvalidateRemoteIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteIndex = nil
}

// WarnOnce records a session-level warning the first time a key is seen.
// Returns true when the warning was newly added.
func (s *Session) WarnOnce(key, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warned == nil {
		s.warned = make(map[string]bool)
	}
	if s.warned[key] {
		return false
	}
	s.warned[key] = true
	s.warnings = append(s.warnings, message)
	return true
}

// Warnings returns the session-level warnings collected so far.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

func (s *Session) expired(ttl time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

func (s *Session) currentUploadDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadDir
}

// Store keeps all live sessions. Single-user tool in practice, but browsers
// fire parallel fetches, so access stays mutex-guarded.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	ttl             time.Duration
	defaultSettings models.SourceSettings
	defaultWorkbook string
}

func NewStore(ttl time.Duration, defaults models.SourceSettings, defaultWorkbook string) *Store {
	return &Store{
		sessions:        make(map[uuid.UUID]*Session),
		ttl:             ttl,
		defaultSettings: defaults,
		defaultWorkbook: defaultWorkbook,
	}
}

// Create registers a fresh session seeded with the configured defaults.
func (st *Store) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New(),
		CreatedAt:    now,
		lastSeen:     now,
		workbookPath: st.defaultWorkbook,
		settings:     st.defaultSettings,
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the live session with the given ID, or ErrSessionNotFound
// when it never existed or was swept.
func (st *Store) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, utils.ErrSessionNotFound
	}
	return s, nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// FromRequest resolves the session cookie, creating a session (and setting
// the cookie) when absent or unknown.
func (st *Store) FromRequest(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(constants.SessionCookieName); err == nil {
		if id, parseErr := uuid.Parse(c.Value); parseErr == nil {
			if s, lookupErr := st.Get(id); lookupErr == nil {
				return s
			}
		}
	}

	s := st.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    s.ID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Sweep drops sessions idle past the TTL and removes their upload dirs.
// Returns how many were removed.
func (st *Store) Sweep() int {
	now := time.Now()

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.expired(st.ttl, now) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		if dir := s.currentUploadDir(); dir != "" {
			if err := os.RemoveAll(dir); err != nil {
				utils.Logger.WithError(err).Warnf("[Sessions] Could not remove upload dir %s", dir)
			}
		}
	}
	if len(expired) > 0 {
		utils.Logger.Infof("[Sessions] Swept %d expired session(s)", len(expired))
	}
	return len(expired)
}
