package controllers

import (
	"net/http"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/app"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/dtos"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(a *app.App) *HealthController {
	return &HealthController{app: a}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	// No DB and no required upstream; geocoders and Drive are best-effort
	// at request time. Alive means healthy.
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK"})
}
