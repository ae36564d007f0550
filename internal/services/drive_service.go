package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

var (
	folderIDFromPath  = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]{20,})`)
	folderIDFromQuery = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]{20,})`)
)

// ExtractDriveFolderID accepts whatever the user pastes: a shareable
// .../folders/<id> URL, an open?id=<id> URL, or the bare ID itself.
func ExtractDriveFolderID(urlOrID string) (string, error) {
	s := strings.TrimSpace(urlOrID)
	if s == "" {
		return "", utils.ErrInvalidFolderID
	}
	if m := folderIDFromPath.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if m := folderIDFromQuery.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if !strings.Contains(s, "/") && len(s) >= 20 {
		return s, nil
	}
	return "", utils.ErrInvalidFolderID
}

/*────────────────────────────────────────────────────────────────────────────
  DriveService wraps the Drive v3 API for API-key access to a shared
  folder: one listing per session (cached upstream) and media downloads.
────────────────────────────────────────────────────────────────────────────*/

type DriveService struct {
	mu      sync.Mutex
	clients map[string]*drive.Service
}

func NewDriveService() *DriveService {
	return &DriveService{clients: make(map[string]*drive.Service)}
}

// client returns a Drive service for the API key, building it on first use.
// Keys vary per session, so this is a small cache rather than a sync.Once.
func (s *DriveService) client(ctx context.Context, apiKey string) (*drive.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[apiKey]; ok {
		return c, nil
	}
	c, err := drive.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		utils.Logger.WithError(err).Error("[Drive] Failed to initialize Drive client")
		return nil, driveErr(err)
	}
	s.clients[apiKey] = c
	return c, nil
}

// ListFolder returns filename -> file IDs for everything in the folder.
// Several files may share a name; all IDs are kept. Pagination is followed
// to the end, but this still counts as the session's one listing.
func (s *DriveService) ListFolder(ctx context.Context, apiKey, folderID string) (map[string][]string, error) {
	cli, err := s.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]string)
	call := cli.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
		Fields("nextPageToken, files(id, name)").
		PageSize(constants.DriveListPageSize).
		Context(ctx)

	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, driveErr(err)
		}
		for _, f := range page.Files {
			files[f.Name] = append(files[f.Name], f.Id)
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	utils.Logger.Debugf("[Drive] Listed folder %s: %d name(s)", folderID, len(files))
	return files, nil
}

// Download streams a file's bytes (alt=media). The caller owns the body.
func (s *DriveService) Download(ctx context.Context, apiKey, fileID string) (io.ReadCloser, error) {
	cli, err := s.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	resp, err := cli.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, driveErr(err)
	}
	return resp.Body, nil
}

// driveErr shapes a failure into an AppError the controllers can map
// directly. The API's own code and message are kept in the wrapped error,
// and the chain carries ErrRemoteUnavailable for errors.Is checks.
func driveErr(err error) error {
	cause := fmt.Sprintf("drive request failed: %v", err)
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		cause = fmt.Sprintf("drive api error (%d): %s", gerr.Code, gerr.Message)
	}
	return &utils.AppError{
		StatusCode: http.StatusBadGateway,
		Code:       utils.ErrCodeExternalServiceFailure,
		Message:    "Drive request failed",
		Err:        fmt.Errorf("%s: %w", cause, utils.ErrRemoteUnavailable),
	}
}
