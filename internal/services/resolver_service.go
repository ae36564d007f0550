package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/state"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

// RemoteLister builds a filename -> file IDs listing for one remote folder.
// DriveService implements it; tests substitute fakes.
type RemoteLister interface {
	ListFolder(ctx context.Context, apiKey, folderID string) (map[string][]string, error)
}

// ResolverService turns an apartment record plus the session's source
// settings into the set of floor-plan documents to offer.
type ResolverService struct {
	lister RemoteLister
}

func NewResolverService(lister RemoteLister) *ResolverService {
	return &ResolverService{lister: lister}
}

/*────────────────────────────────────────────────────────────────────────────
  Resolve applies the matching policy:

    1. A non-empty document reference is checked under the active local
       root, relative first then absolute. A hit wins outright.
    2. Otherwise the record's address is the filename base, matched exactly
       (case- and whitespace-sensitive) against the active source listing
       plus any plans uploaded in this session:
       {base}.{ext}, {base}_1.{ext}, {base}_2.{ext}, ...
       An uploaded plan shadows a same-named file from the configured
       source.
    3. All matches are collected, ordered by suffix then pdf > jpg > jpeg.

  No match returns an empty slice; "nothing found" is a rendering concern,
  not an error.
────────────────────────────────────────────────────────────────────────────*/

func (s *ResolverService) Resolve(ctx context.Context, rec models.ApartmentRecord, sess *state.Session) []models.ResolvedDocument {
	settings := sess.Settings()
	localRoot := localRootOrDefault(settings)

	if ref := strings.TrimSpace(rec.DocumentReference); ref != "" {
		if doc, ok := resolveExplicit(ref, localRoot); ok {
			return []models.ResolvedDocument{doc}
		}
	}

	base := rec.Address
	if base == "" {
		return nil
	}

	byName := make(map[string]candidate)
	switch settings.Mode {
	case models.SourceModeRemote:
		s.remoteCandidates(ctx, byName, sess, settings)
	default:
		folderCandidates(byName, models.SourceLocalFolder, localRoot)
	}
	folderCandidates(byName, models.SourceUploaded, sess.PlansDir())

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}

	var docs []models.ResolvedDocument
	for _, m := range matchListing(base, names) {
		docs = append(docs, documentsFor(m, byName[m.name])...)
	}
	return docs
}

// localRootOrDefault falls back to the conventional plan folders when no
// local root is configured.
func localRootOrDefault(settings models.SourceSettings) string {
	if settings.LocalRoot != "" {
		return settings.LocalRoot
	}
	for _, dir := range constants.DefaultLocalRootCandidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

// resolveExplicit honors the spreadsheet's own path hint. Relative to the
// local root first, then as an absolute path, so workbooks authored on
// another machine still resolve.
func resolveExplicit(ref, localRoot string) (models.ResolvedDocument, bool) {
	candidates := make([]string, 0, 2)
	if localRoot != "" {
		candidates = append(candidates, filepath.Join(localRoot, ref))
	}
	candidates = append(candidates, ref)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return models.ResolvedDocument{
			SourceKind:      models.SourceExplicitPath,
			ResolvedLocator: path,
			FileName:        filepath.Base(path),
			MimeHint:        models.MimeHintForExtension(strings.ToLower(filepath.Ext(path))),
		}, true
	}
	return models.ResolvedDocument{}, false
}

// candidate is one filename's possible documents before ordering: a single
// local path, or every remote file ID listed under that name.
type candidate struct {
	kind     models.SourceKind
	locators []string
}

// folderCandidates adds every file in a directory to the candidate map,
// replacing entries already there. Called for the uploads dir after the
// configured source, which is what makes uploads shadow it.
func folderCandidates(byName map[string]candidate, kind models.SourceKind, root string) {
	if root == "" {
		return
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		utils.Logger.WithError(err).Debugf("[Resolver] Could not read folder %s", root)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		byName[e.Name()] = candidate{kind: kind, locators: []string{filepath.Join(root, e.Name())}}
	}
}

func (s *ResolverService) remoteCandidates(ctx context.Context, byName map[string]candidate, sess *state.Session, settings models.SourceSettings) {
	ix := s.ensureRemoteIndex(ctx, sess, settings)
	if ix == nil || ix.Failed {
		return
	}
	for name, fileIDs := range ix.Entries {
		byName[name] = candidate{kind: models.SourceRemoteFolder, locators: fileIDs}
	}
}

func documentsFor(m listingMatch, c candidate) []models.ResolvedDocument {
	docs := make([]models.ResolvedDocument, 0, len(c.locators))
	for _, loc := range c.locators {
		doc := models.ResolvedDocument{
			SourceKind:      c.kind,
			ResolvedLocator: loc,
			FileName:        m.name,
			MimeHint:        models.MimeHintForExtension(m.ext),
		}
		if c.kind == models.SourceRemoteFolder {
			doc.PreviewURL = fmt.Sprintf(constants.DrivePreviewURLFmt, loc)
			doc.ViewURL = fmt.Sprintf(constants.DriveViewURLFmt, loc)
		}
		docs = append(docs, doc)
	}
	return docs
}

// ensureRemoteIndex returns the session's index for the active folder
// identity, building it on first use. A failed build is cached and warned
// about exactly once per session; remote lookups then degrade to empty.
func (s *ResolverService) ensureRemoteIndex(ctx context.Context, sess *state.Session, settings models.SourceSettings) *models.RemoteFolderIndex {
	if !settings.RemoteConfigured() {
		sess.WarnOnce("remote_unconfigured", "Remote folder mode needs both an API key and a folder ID")
		return nil
	}

	key := models.RemoteIndexKey(settings.APIKey, settings.FolderID)
	if ix := sess.RemoteIndex(); ix.CurrentFor(key) {
		return ix
	}

	entries, err := s.lister.ListFolder(ctx, settings.APIKey, settings.FolderID)
	if err != nil {
		msg := "Remote folder listing failed; floor plans from Drive are unavailable this session"
		utils.Logger.WithError(err).Errorf("[Resolver] Listing folder %s failed", settings.FolderID)
		ix := &models.RemoteFolderIndex{Key: key, Failed: true, Warning: msg}
		sess.SetRemoteIndex(ix)
		sess.WarnOnce("remote_listing:"+key, msg)
		return ix
	}

	ix := &models.RemoteFolderIndex{Key: key, Entries: entries, Built: true}
	sess.SetRemoteIndex(ix)
	utils.Logger.Infof("[Resolver] Remote index built for folder %s: %d name(s)", settings.FolderID, len(entries))
	return ix
}

/*────────────────────────────────────────────────────────────────────────────
  Listing matcher shared by both modes.
────────────────────────────────────────────────────────────────────────────*/

type listingMatch struct {
	name   string
	ext    string
	suffix int
	extPri int
}

// matchListing walks a filename listing and keeps names shaped like
// {base}{ext} or {base}_{N}{ext} for N >= 1, ordered by N (unsuffixed
// first) and, within one N, by extension precedence pdf > jpg > jpeg.
func matchListing(base string, names []string) []listingMatch {
	var matches []listingMatch
	for _, name := range names {
		for pri, ext := range models.SupportedExtensions {
			if !strings.HasSuffix(name, ext) {
				continue
			}
			stem := strings.TrimSuffix(name, ext)
			suffix, ok := suffixIndex(stem, base)
			if !ok {
				continue
			}
			matches = append(matches, listingMatch{name: name, ext: ext, suffix: suffix, extPri: pri})
			break
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].suffix != matches[j].suffix {
			return matches[i].suffix < matches[j].suffix
		}
		return matches[i].extPri < matches[j].extPri
	})
	return matches
}

// suffixIndex reports which unit suffix a filename stem carries relative
// to base: 0 for the bare base, N for "{base}_N". Anything else misses.
func suffixIndex(stem, base string) (int, bool) {
	if stem == base {
		return 0, true
	}
	rest, found := strings.CutPrefix(stem, base+"_")
	if !found || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || strconv.Itoa(n) != rest {
		// Only canonical decimal suffixes count; "_03" or "_+3" are
		// different filenames, not unit 3.
		return 0, false
	}
	return n, true
}
