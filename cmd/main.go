package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/config"
	"github.com/sanametrics/fieldsync/database"
	_ "github.com/sanametrics/fieldsync/docs" // Swagger docs
	"github.com/sanametrics/fieldsync/internal/controller"
	"github.com/sanametrics/fieldsync/internal/logger"
	"github.com/sanametrics/fieldsync/internal/model"
	"github.com/sanametrics/fieldsync/internal/remote"
	"github.com/sanametrics/fieldsync/internal/repository"
	"github.com/sanametrics/fieldsync/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title FieldSync Agent API
// @version 1.0
// @description Local API of the offline-first survey collection agent. Interviews are stored durably on the device and synchronized to the survey platform whenever connectivity allows.
// @host localhost:8090
// @BasePath /api/v1
// @schemes http
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			NewRemoteClient,
		),

		fx.Provide(
			repository.NewInterviewRepository,
			repository.NewSurveyRepository,
		),

		fx.Provide(
			service.NewSessionService,
			service.NewConnectivityService,
			// The sync coordinator only needs the reachability half of the
			// connectivity service.
			func(cs service.ConnectivityService) service.Reachability { return cs },
			service.NewSyncService,
			service.NewInterviewService,
			service.NewSurveyService,
		),

		fx.Provide(
			controller.NewController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartSyncTriggers),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Agent shutting down gracefully...")
}

func NewRemoteClient(cfg *config.Config) *remote.Client {
	return remote.NewClient(cfg, nil)
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	// The capture UI runs on the same device; keep CORS permissive.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the local API and manages the HTTP
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	ctrl *controller.Controller,
) {
	ctrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("FieldSync agent listening on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// StartSyncTriggers starts the connectivity watcher and hooks up the two
// automatic sync triggers: the startup flush and the offline-to-online edge.
func StartSyncTriggers(
	lc fx.Lifecycle,
	watcher service.ConnectivityService,
	syncSvc service.SyncService,
) {
	watcher.OnOnline(func() {
		go syncSvc.TriggerSync(context.Background(), false)
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			watcher.Start()
			// Flush anything queued during a previous offline session.
			go syncSvc.TriggerSync(context.Background(), false)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			watcher.Stop()
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running local store migrations...")
	err := db.AutoMigrate(
		&model.Survey{},
		&model.Question{},
		&model.Choice{},
		&model.Interview{},
		&model.InterviewAnswer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Local store migration failed")
		return err
	}
	log.Info().Msg("Local store migration completed")
	return nil
}
