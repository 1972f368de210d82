package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kdimtricp/leafscan/internal/api"
	"github.com/kdimtricp/leafscan/internal/catalog"
	"github.com/kdimtricp/leafscan/internal/config"
	"github.com/kdimtricp/leafscan/internal/database"
	"github.com/kdimtricp/leafscan/internal/detection"
	"github.com/kdimtricp/leafscan/internal/history"
	"github.com/kdimtricp/leafscan/internal/logging"
	"github.com/kdimtricp/leafscan/internal/storage"
	"github.com/mdobak/go-xerrors"
)

func main() {
	logger := logging.GetLogger()
	if err := run(logger); err != nil {
		logger.Error("server exited", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(database.Config(cfg.DB))
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := database.NewMigrator(db).Run(ctx, cfg.MigrationsPath); err != nil {
		return err
	}

	catalogRepo := database.NewCatalogRepository(db)
	seeded, err := catalogRepo.Seed(ctx, catalog.SeedDatasets(), catalog.SeedSignatures())
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("seeded reference catalog")
	}

	historyRepo := database.NewHistoryRepository(db)
	sinks := history.NewMulti(historyRepo)
	var historyReader api.HistoryReader = historyRepo

	if cfg.MongoURI != "" {
		mongoSink, err := history.NewMongoSink(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer mongoSink.Close(context.Background())
		sinks = append(sinks, mongoSink)
		historyReader = mongoSink
		logger.Info("mirroring detection history to mongo", slog.String("database", cfg.MongoDatabase))
	}

	svc := detection.NewService(catalogRepo, sinks, nil, detection.Config{
		MaxImagePixels: cfg.MaxImagePixels,
		PoolSize:       cfg.WorkerPoolSize,
		Timeout:        cfg.DetectTimeout,
	})

	app := &api.App{
		Detector:      svc,
		Catalog:       catalogRepo,
		History:       historyReader,
		Pool:          svc.Pool(),
		MaxUploadSize: cfg.MaxUploadSize,
		Logger:        logging.Component("api"),
	}

	if cfg.StoreUploads {
		store, err := storage.NewLocalStorage(cfg.UploadDir)
		if err != nil {
			return err
		}
		app.Storage = store
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("db_type", db.Type()),
			slog.Bool("store_uploads", cfg.StoreUploads),
			slog.Int("worker_pool_size", svc.Pool().Stats().Size),
			slog.Int64("max_upload_size", cfg.MaxUploadSize))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
