package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
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

type DocumentsController struct {
	app *app.App
}

func NewDocumentsController(a *app.App) *DocumentsController {
	return &DocumentsController{app: a}
}

// GET /api/v1/documents/resolve?address=..&reference=..
// Runs the matching policy for one record; an empty set is a 200, the UI
// turns it into the "no floor plan" indicator.
func (c *DocumentsController) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if address == "" && reference == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "address or reference query param is required", nil, nil)
		return
	}

	resp := c.app.DocumentsService.ResolveForRecord(r.Context(), sess, address, reference)
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/documents/upload
// Multipart upload of floor-plan files. They join this session's matching
// pool and shadow same-named files from the configured source.
func (c *DocumentsController) UploadHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes)
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Could not parse multipart upload", nil, err)
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing form field 'files'", nil, nil)
		return
	}

	// Validate every name before storing anything, so a bad batch changes
	// nothing.
	for _, header := range headers {
		name := filepath.Base(header.Filename)
		if name == "." || name == string(filepath.Separator) || !supportedPlanExt(name) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
				fmt.Sprintf("Unsupported floor-plan file %q; use pdf, jpg or jpeg", header.Filename), nil, nil)
			return
		}
	}

	dir, err := sess.EnsurePlansDir(c.app.Config.UploadsDir)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not prepare upload directory", nil, err)
		return
	}

	stored := make([]string, 0, len(headers))
	for _, header := range headers {
		name := filepath.Base(header.Filename)
		if err := storePlan(dir, name, header); err != nil {
			utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not store upload", nil, err)
			return
		}
		stored = append(stored, name)
	}

	utils.Logger.Infof("[Documents] Session %s uploaded %d floor plan(s)", sess.ID, len(stored))
	utils.RespondWithJSON(w, http.StatusOK, dtos.UploadPlansResponse{
		Stored:    len(stored),
		FileNames: stored,
	})
}

func storePlan(dir, name string, header *multipart.FileHeader) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// supportedPlanExt accepts the matcher's extensions, case-insensitively so
// a camera's ".JPG" still uploads.
func supportedPlanExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range models.SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// GET /api/v1/documents/view?address=..&reference=..&index=N
func (c *DocumentsController) ViewHandler(w http.ResponseWriter, r *http.Request) {
	c.serveDocument(w, r, "inline")
}

// GET /api/v1/documents/download?address=..&reference=..&index=N
func (c *DocumentsController) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	c.serveDocument(w, r, "attachment")
}

// serveDocument re-resolves the record and streams the index-th document.
// The index is positional within the record's deterministic resolution
// order, so the same query always yields the same file.
func (c *DocumentsController) serveDocument(w http.ResponseWriter, r *http.Request, disposition string) {
	sess := c.app.Sessions.FromRequest(w, r)

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if address == "" && reference == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "address or reference query param is required", nil, nil)
		return
	}

	index := 0
	if raw := r.URL.Query().Get("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "index must be a non-negative integer", nil, err)
			return
		}
		index = n
	}

	body, doc, err := c.app.DocumentsService.OpenDocument(r.Context(), sess, address, reference, index)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrDocumentNotFound), errors.Is(err, os.ErrNotExist):
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "No floor plan at that index", nil, err)
		default:
			// Drive failures arrive as AppErrors (502, remote unavailable);
			// anything else falls back to a 500.
			utils.HandleAppError(w, err)
		}
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.MimeHint)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		// Headers are gone; all we can do is log the broken stream.
		utils.Logger.WithError(err).Warnf("[Documents] Stream of %q aborted", doc.FileName)
	}
}
