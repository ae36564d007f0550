package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/app"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/dtos"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/services"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/state"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

var settingsValidate = validator.New()

type SettingsController struct {
	app *app.App
}

func NewSettingsController(a *app.App) *SettingsController {
	return &SettingsController{app: a}
}

// GET /api/v1/settings
func (c *SettingsController) GetHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)
	utils.RespondWithJSON(w, http.StatusOK, settingsDTO(sess))
}

// PUT /api/v1/settings
// Partial update; nil fields stay untouched. Folder accepts a bare ID or a
// shareable URL. Changing the folder or the API key invalidates the
// session's remote folder index, so the next resolution lists the new
// folder exactly once.
func (c *SettingsController) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := c.app.Sessions.FromRequest(w, r)

	var req dtos.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON body", err, nil)
		return
	}

	if err := settingsValidate.StructCtx(ctx, req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", validationErrors, nil)
		} else {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request data", err, nil)
		}
		return
	}

	// Extract before touching the session so a bad folder value changes
	// nothing.
	var folderID *string
	if req.Folder != nil {
		if strings.TrimSpace(*req.Folder) == "" {
			empty := ""
			folderID = &empty
		} else {
			id, err := services.ExtractDriveFolderID(*req.Folder)
			if err != nil {
				utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unrecognized Drive folder link or ID", nil, err)
				return
			}
			folderID = &id
		}
	}

	var before, after string
	sess.UpdateSettings(func(s *models.SourceSettings) {
		before = models.RemoteIndexKey(s.APIKey, s.FolderID)
		if req.Mode != nil {
			s.Mode = models.SourceMode(*req.Mode)
		}
		if req.LocalRoot != nil {
			s.LocalRoot = strings.TrimSpace(*req.LocalRoot)
		}
		if req.APIKey != nil {
			s.APIKey = strings.TrimSpace(*req.APIKey)
		}
		if folderID != nil {
			s.FolderID = *folderID
		}
		after = models.RemoteIndexKey(s.APIKey, s.FolderID)
	})

	if before != after {
		sess.InvalidateRemoteIndex()
		utils.Logger.Info("[Settings] Remote folder identity changed; index invalidated")
	}

	utils.RespondWithJSON(w, http.StatusOK, settingsDTO(sess))
}

func settingsDTO(sess *state.Session) dtos.SettingsResponse {
	s := sess.Settings()
	return dtos.SettingsResponse{
		Mode:      s.Mode,
		LocalRoot: s.LocalRoot,
		FolderID:  s.FolderID,
		HasAPIKey: s.APIKey != "",
	}
}
