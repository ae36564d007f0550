package app

import (
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/config"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/services"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/state"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

// App struct holds references to config, session state and services.
type App struct {
	Config   *config.Config
	Sessions *state.Store

	IngestService    *services.IngestService
	GeocodeService   *services.GeocodeService
	DriveService     *services.DriveService
	ResolverService  *services.ResolverService
	DocumentsService *services.DocumentsService
	MapService       *services.MapService
}

// NewApp sets up the core application context (no DB; everything lives in
// per-session state).
func NewApp(cfg *config.Config) *App {
	utils.Logger.Info("Initializing apartments-map App")

	ingestSvc := services.NewIngestService()
	geocodeSvc := services.NewGeocodeService(cfg.GMapsAPIKey)
	driveSvc := services.NewDriveService()
	resolverSvc := services.NewResolverService(driveSvc)
	documentsSvc := services.NewDocumentsService(resolverSvc, driveSvc)
	mapSvc := services.NewMapService(ingestSvc, geocodeSvc, resolverSvc)

	sessions := state.NewStore(constants.SessionTTL, defaultSettings(cfg), cfg.WorkbookPath)

	return &App{
		Config:   cfg,
		Sessions: sessions,

		IngestService:    ingestSvc,
		GeocodeService:   geocodeSvc,
		DriveService:     driveSvc,
		ResolverService:  resolverSvc,
		DocumentsService: documentsSvc,
		MapService:       mapSvc,
	}
}

// defaultSettings seeds new sessions from the environment. A configured
// Drive folder makes remote the starting mode; otherwise the local
// floor-plans directory is used.
func defaultSettings(cfg *config.Config) models.SourceSettings {
	settings := models.SourceSettings{
		Mode:      models.SourceModeLocal,
		LocalRoot: cfg.FloorplansDir,
		APIKey:    cfg.DriveAPIKey,
	}

	if cfg.DriveFolderRaw != "" {
		folderID, err := services.ExtractDriveFolderID(cfg.DriveFolderRaw)
		if err != nil {
			utils.Logger.WithError(err).Warnf("Ignoring DRIVE_FOLDER_ID %q", cfg.DriveFolderRaw)
		} else {
			settings.FolderID = folderID
			if settings.APIKey != "" {
				settings.Mode = models.SourceModeRemote
			}
		}
	}
	return settings
}

// Close is a no-op here but included for consistency.
func (a *App) Close() {
	a.Config.Close()
	utils.Logger.Info("apartments-map app shutting down.")
}
