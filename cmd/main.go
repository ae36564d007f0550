package main

import (
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/app"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/config"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/controllers"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/routes"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)

	// 1) Config
	cfg := config.LoadConfig()
	defer cfg.Close()

	// 2) Core application (services, session store)
	application := app.NewApp(cfg)
	defer application.Close()

	// 3) Controllers
	healthCtrl := controllers.NewHealthController(application)
	mapCtrl := controllers.NewMapController(application)
	listingsCtrl := controllers.NewListingsController(application)
	documentsCtrl := controllers.NewDocumentsController(application)
	settingsCtrl := controllers.NewSettingsController(application)

	// 4) Router
	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthCtrl.HealthCheckHandler).Methods(http.MethodGet)

	router.HandleFunc(routes.MapPage, mapCtrl.PageHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.MapData, mapCtrl.MapDataHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.MapExport, mapCtrl.ExportHandler).Methods(http.MethodGet)

	router.HandleFunc(routes.ListingsBase, listingsCtrl.ListHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.ListingsUpload, listingsCtrl.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.ListingsReload, listingsCtrl.ReloadHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.ListingsNearest, listingsCtrl.NearestHandler).Methods(http.MethodGet)

	router.HandleFunc(routes.DocumentsResolve, documentsCtrl.ResolveHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.DocumentsUpload, documentsCtrl.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.DocumentsView, documentsCtrl.ViewHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.DocumentsDownload, documentsCtrl.DownloadHandler).Methods(http.MethodGet)

	router.HandleFunc(routes.Settings, settingsCtrl.GetHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.Settings, settingsCtrl.UpdateHandler).Methods(http.MethodPut)

	// 5) Session housekeeping
	c := cron.New()
	_, sweepErr := c.AddFunc("@every 1h", func() {
		application.Sessions.Sweep()
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule session sweep cron")
	}
	c.Start()

	// 6) CORS
	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Server error:", err)
	}
}
