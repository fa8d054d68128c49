package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"plate-service/internal/auth"
	"plate-service/internal/config"
	"plate-service/internal/db"
	httphandler "plate-service/internal/http"
	"plate-service/internal/http/middleware"
	"plate-service/internal/logger"
	"plate-service/internal/regions"
	"plate-service/internal/repository"
	"plate-service/internal/service"
	"plate-service/internal/storage"
	"plate-service/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	var database *gorm.DB
	if cfg.UsesDB() {
		database, err = db.New(cfg, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect database")
		}
	}

	// Object storage is optional unless the region table lives there.
	r2Client, err := storage.NewR2Client(cfg.Storage)
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		appLogger.Fatal().Err(err).Msg("failed to initialize R2 client")
	}
	if err != nil {
		appLogger.Warn().Msg("R2 storage not configured, object_key photos will be rejected")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	table, err := loadRegions(startupCtx, cfg, database, r2Client)
	if err != nil {
		cancelStartup()
		appLogger.Fatal().Err(err).Str("source", cfg.Regions.Source).Msg("failed to load region table")
	}
	appLogger.Info().Str("source", cfg.Regions.Source).Int("records", table.Len()).Msg("region table loaded")

	detectors, err := newDetectors(startupCtx, cfg, appLogger)
	cancelStartup()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to initialize detectors")
	}

	recognition := service.NewRecognitionService(table, detectors, cfg.Detection.MinPlateWidth, appLogger)

	authMiddleware := middleware.Noop()
	if cfg.AuthEnabled() {
		authMiddleware = middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret))
	} else {
		appLogger.Warn().Msg("JWT_ACCESS_SECRET not set, recognition endpoints are open")
	}

	var objects httphandler.ObjectStore
	if r2Client != nil {
		objects = r2Client
	}
	handler := httphandler.NewHandler(recognition, cfg, appLogger, objects)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, database, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting plate service")

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error().Err(err).Msg("failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited")
}

func loadRegions(ctx context.Context, cfg *config.Config, database *gorm.DB, r2Client *storage.R2Client) (*regions.Table, error) {
	switch cfg.Regions.Source {
	case config.RegionsSourceDB:
		return regions.LoadStore(ctx, repository.NewRegionRepository(database))
	case config.RegionsSourceObject:
		if r2Client == nil {
			return nil, storage.ErrNotConfigured
		}
		return regions.LoadObject(ctx, r2Client, cfg.Regions.ObjectKey)
	default:
		return regions.LoadFile(cfg.Regions.Path)
	}
}

func newDetectors(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.Detectors, error) {
	if !cfg.Detection.Enabled {
		log.Warn().Msg("detection disabled, only text parsing is available")
		return service.Detectors{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Detection.AWSRegion))
	if err != nil {
		return service.Detectors{}, fmt.Errorf("load aws config: %w", err)
	}

	rek := vision.NewRekognition(rekognition.NewFromConfig(awsCfg), vision.RekognitionOptions{
		VehicleMinConfidence: cfg.Detection.VehicleMinConfidence,
		PlateModelARN:        cfg.Detection.PlateModelARN,
		PlateMinConfidence:   cfg.Detection.PlateMinConfidence,
	})

	detectors := service.Detectors{Vehicles: rek, Plates: rek, Text: rek}
	if cfg.Detection.OCRBackend == config.OCRBackendTesseract {
		detectors.Text = vision.NewTesseract(cfg.Detection.TesseractLanguage)
	}

	log.Info().
		Str("aws_region", cfg.Detection.AWSRegion).
		Str("ocr_backend", cfg.Detection.OCRBackend).
		Int("min_plate_width", cfg.Detection.MinPlateWidth).
		Msg("detectors ready")
	return detectors, nil
}
