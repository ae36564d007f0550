package controllers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/app"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/dtos"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

// uploadMessage mirrors the empty-state prompt the UI shows before any
// workbook is available. Surfaced as a warning, never as an error.
const uploadMessage = "Please upload an Excel file (.xlsx) with apartment listings to begin."

type ListingsController struct {
	app *app.App
}

func NewListingsController(a *app.App) *ListingsController {
	return &ListingsController{app: a}
}

// GET /api/v1/listings
func (c *ListingsController) ListHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	records, skipped, err := c.app.IngestService.EnsureLoaded(sess)
	if err != nil {
		if errors.Is(err, utils.ErrWorkbookNotFound) {
			utils.RespondWithJSON(w, http.StatusOK, dtos.ListingsResponse{
				Listings: []models.ApartmentRecord{},
				Warnings: []string{uploadMessage},
			})
			return
		}
		respondWorkbookError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ListingsResponse{
		Listings:    records,
		SkippedRows: skipped,
		Warnings:    sess.Warnings(),
	})
}

// POST /api/v1/listings/upload
// Multipart upload of a replacement workbook; it becomes the session's
// active workbook only after it parses.
func (c *ListingsController) UploadHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes)
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Could not parse multipart upload", nil, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing form field 'file'", nil, err)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Only .xlsx workbooks are accepted; resave legacy .xls files as .xlsx", nil, nil)
		return
	}

	dir, err := sess.UploadDir(c.app.Config.UploadsDir)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not prepare upload directory", nil, err)
		return
	}

	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not store upload", nil, err)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not store upload", nil, err)
		return
	}
	out.Close()

	// Parse before switching so a broken upload never shadows a working
	// workbook.
	records, skipped, err := c.app.IngestService.LoadWorkbook(dst)
	if err != nil {
		respondWorkbookError(w, err)
		return
	}
	sess.SetWorkbookPath(dst)
	sess.SetRecords(records, skipped)

	utils.Logger.Infof("[Listings] Session %s uploaded %q (%d listings)", sess.ID, name, len(records))
	utils.RespondWithJSON(w, http.StatusOK, dtos.WorkbookStatusResponse{
		Workbook:    name,
		Loaded:      len(records),
		SkippedRows: skipped,
	})
}

// POST /api/v1/listings/reload
// Drops the cached records and re-reads the active workbook.
func (c *ListingsController) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	path := sess.WorkbookPath()
	if path == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, uploadMessage, nil, nil)
		return
	}

	records, skipped, err := c.app.IngestService.LoadWorkbook(path)
	if err != nil {
		respondWorkbookError(w, err)
		return
	}
	sess.SetRecords(records, skipped)

	utils.RespondWithJSON(w, http.StatusOK, dtos.WorkbookStatusResponse{
		Workbook:    filepath.Base(path),
		Loaded:      len(records),
		SkippedRows: skipped,
	})
}

// GET /api/v1/listings/nearest?lat=..&lng=..
func (c *ListingsController) NearestHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "lat and lng query params are required", nil, nil)
		return
	}

	resp, err := c.app.MapService.Nearest(r.Context(), sess, lat, lng)
	if err != nil {
		if errors.Is(err, utils.ErrWorkbookNotFound) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, uploadMessage, nil, nil)
			return
		}
		if errors.Is(err, utils.ErrNoListings) {
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "No geocodable listings loaded", nil, nil)
			return
		}
		respondWorkbookError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// respondWorkbookError maps ingestion failures onto API errors: anything the
// user can fix by fixing the file is a 400, the rest is a 500.
func respondWorkbookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrWorkbookNotFound):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, uploadMessage, nil, nil)
	case errors.Is(err, utils.ErrSheetNotFound), errors.Is(err, utils.ErrNoListings):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Workbook has no usable listings", nil, err)
	default:
		utils.Logger.WithError(err).Error("Workbook load error")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not load workbook", nil, err)
	}
}
