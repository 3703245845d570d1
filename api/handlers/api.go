package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/api/scheduler"
	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
	"github.com/linesmerrill/civic-report-api/storage"
)

// App stores the router and store connections, so they can be reused
type App struct {
	Router *mux.Router
	Config config.Config
	RDB    databases.ReportDatabase
	Store  storage.AttachmentStore
	Feed   *Feed

	client    databases.ClientHelper
	dbHelper  databases.DatabaseHelper
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Feed == nil {
		a.Feed = NewFeed()
	}
	adminAuth := api.NewAdminAuth(&a.Config)

	report := Report{RDB: a.RDB, Store: a.Store, Feed: a.Feed}
	admin := Admin{RDB: a.RDB, Feed: a.Feed}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware, api.TimeoutMiddleware(a.Config.RequestTimeout))

	// healthchex
	r.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")
	r.Handle("/metrics", api.MetricsHandler()).Methods("GET")

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/site", a.siteHandler).Methods("GET")
	apiRouter.HandleFunc("/reports", report.ListReportsHandler).Methods("GET")
	apiRouter.HandleFunc("/reports", report.CreateReportHandler).Methods("POST")
	apiRouter.HandleFunc("/admin/token", adminAuth.CreateToken).Methods("POST")

	adminRouter := apiRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(adminAuth.Middleware)
	// export must stay above {report_id}
	adminRouter.HandleFunc("/reports/export", admin.ExportReportsHandler).Methods("GET")
	adminRouter.HandleFunc("/reports/{report_id}", admin.GetReportHandler).Methods("GET")
	adminRouter.HandleFunc("/reports/{report_id}/status", admin.UpdateReportStatusHandler).Methods("PATCH")
	adminRouter.HandleFunc("/feed", a.Feed.ServeWS).Methods("GET")

	r.MethodNotAllowedHandler = api.MethodNotAllowedHandler(r)
	return r
}

// Initialize is invoked by main to connect with the stores and create a router.
// Missing required configuration is returned as an error so the process exits.
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	a.client = client

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	if err := databases.EnsureReportIndexes(ctx, a.dbHelper); err != nil {
		zap.S().Warnw("failed to create report indexes", "error", err)
	}
	zap.S().Infow("civic-report-api has connected to the database", "database", a.Config.DatabaseName)

	store, err := storage.NewCloudinaryStore(&a.Config)
	if err != nil {
		zap.S().Errorw("failed to set up attachment store", "error", err)
		return err
	}
	a.Store = store
	a.RDB = databases.NewReportDatabase(a.dbHelper)

	a.startScheduler()

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) startScheduler() {
	mailer, err := scheduler.NewSendgridMailer(&a.Config)
	if errors.Is(err, config.ErrMissingConfig) {
		zap.S().Infow("daily report digest disabled", "reason", err.Error())
		return
	}
	if err != nil {
		zap.S().Warnw("failed to set up digest mailer", "error", err)
		return
	}
	s := scheduler.NewScheduler(a.RDB, mailer, &a.Config)
	if err := s.Start(); err != nil {
		zap.S().Errorw("failed to start digest scheduler", "error", err)
		return
	}
	a.scheduler = s
}

// Shutdown stops background jobs and closes the database connection
func (a *App) Shutdown(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.client != nil {
		return a.client.Disconnect(ctx)
	}
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func (a *App) siteHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SiteResponse{
		SiteName:   a.Config.SiteName,
		Categories: models.Categories,
	})
}
