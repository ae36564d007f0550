package controllers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/app"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/dtos"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

var mapPageTmpl = template.Must(template.New("map").Parse(mapPageHTML))

// mapPageData feeds mapPageHTML. Data nil means the page fetches markers
// itself; non-nil inlines them, which is what the export uses.
type mapPageData struct {
	Title      string
	Data       *dtos.MapDataResponse
	Standalone bool
}

type MapController struct {
	app *app.App
}

func NewMapController(a *app.App) *MapController {
	return &MapController{app: a}
}

// GET /
func (c *MapController) PageHandler(w http.ResponseWriter, r *http.Request) {
	// Establish the session cookie before any data call.
	c.app.Sessions.FromRequest(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := mapPageTmpl.Execute(w, mapPageData{Title: c.app.Config.AppName}); err != nil {
		utils.Logger.WithError(err).Error("[Map] Page render failed")
	}
}

// GET /api/v1/map-data
// A missing workbook is the empty-state, not an error: the page renders an
// empty map with the upload prompt as a warning.
func (c *MapController) MapDataHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	data, err := c.app.MapService.BuildMapData(r.Context(), sess)
	if err != nil {
		if errors.Is(err, utils.ErrWorkbookNotFound) {
			utils.RespondWithJSON(w, http.StatusOK, dtos.MapDataResponse{
				Markers: []dtos.MarkerDTO{},
				Center: models.GeoPoint{
					Latitude:  constants.FallbackCenterLat,
					Longitude: constants.FallbackCenterLng,
				},
				Zoom:     constants.DefaultZoom,
				Warnings: []string{uploadMessage},
			})
			return
		}
		respondWorkbookError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, data)
}

// GET /api/v1/map/export
// Self-contained HTML snapshot: markers inlined, Drive links kept, service
// links dropped because a saved file has no server behind it.
func (c *MapController) ExportHandler(w http.ResponseWriter, r *http.Request) {
	sess := c.app.Sessions.FromRequest(w, r)

	data, err := c.app.MapService.BuildMapData(r.Context(), sess)
	if err != nil {
		respondWorkbookError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="apartments-map.html"`)
	w.WriteHeader(http.StatusOK)
	if err := mapPageTmpl.Execute(w, mapPageData{
		Title:      c.app.Config.AppName,
		Data:       data,
		Standalone: true,
	}); err != nil {
		utils.Logger.WithError(err).Error("[Map] Export render failed")
	}
}
