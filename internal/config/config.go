package config

import (
	"os"
	"path/filepath"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

type Config struct {
	AppName string
	Env     string
	AppPort string
	AppUrl  string

	// Data sources
	WorkbookPath  string
	FloorplansDir string
	UploadsDir    string

	// Remote folder (Drive) defaults; per-session overrides live in settings.
	DriveAPIKey    string
	DriveFolderRaw string

	// Optional Google geocoder; Nominatim and ArcGIS need no key.
	GMapsAPIKey string
}

// build-time override, set with -ldflags (same scheme as our other tools)
var (
	AppName string
)

func LoadConfig() *Config {
	//----------------------------------------------------------------------
	// 1) App identity
	//----------------------------------------------------------------------
	if AppName == "" {
		AppName = "apartments-map"
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	//----------------------------------------------------------------------
	// 2) Runtime environment vars
	//----------------------------------------------------------------------
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "dev"
	}

	appURL := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appURL == "" {
		appURL = "http://localhost:" + appPort
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = filepath.Join(os.TempDir(), "apartments-map-uploads")
	}
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		utils.Logger.WithError(err).Fatal("Could not create uploads dir")
	}

	cfg := &Config{
		AppName:        AppName,
		Env:            env,
		AppPort:        appPort,
		AppUrl:         appURL,
		WorkbookPath:   os.Getenv("LISTINGS_XLSX"),
		FloorplansDir:  os.Getenv("FLOORPLANS_DIR"),
		UploadsDir:     uploadsDir,
		DriveAPIKey:    os.Getenv("DRIVE_API_KEY"),
		DriveFolderRaw: os.Getenv("DRIVE_FOLDER_ID"),
		GMapsAPIKey:    os.Getenv("GMAPS_API_KEY"),
	}

	utils.Logger.Infof("Loaded config for %s (%s)", AppName, env)
	return cfg
}

func (c *Config) Close() {
}
