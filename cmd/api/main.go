package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/innerantelope/predictive-maintenance/internal/application"
	appanalyses "github.com/innerantelope/predictive-maintenance/internal/application/analyses"
	"github.com/innerantelope/predictive-maintenance/internal/config"
	"github.com/innerantelope/predictive-maintenance/internal/infra/db/stub"
	"github.com/innerantelope/predictive-maintenance/internal/infra/httpserver"
	"github.com/innerantelope/predictive-maintenance/internal/infra/storage"
	"github.com/innerantelope/predictive-maintenance/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// upload dir dibuat kalau belum ada
	disk, err := storage.NewDisk(cfg.Uploads.Dir)
	if err != nil {
		log.Fatalf("upload dir error: %v", err)
	}

	// init service
	svc := &appanalyses.Service{
		Files: disk,
		Repo:  stub.NewAnalysisRepository(),
		Clock: application.SystemClock{},
	}

	// init minio (optional mirror)
	if cfg.Minio.Enabled {
		mirror, err := storage.NewMinio(ctx, storage.MinioOptions{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			BucketName: cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
		})
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		svc.Mirror = mirror
	}

	// init router
	handler := httpserver.NewRouter(svc, httpserver.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Upload: middleware.UploadOptions{
			MaxFileBytes:  cfg.Uploads.MaxFileBytes,
			MaxFieldBytes: cfg.Uploads.MaxFieldBytes,
		},
		Readiness: map[string]middleware.HealthChecker{"uploads": disk},
	})

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		log.Printf("predictive maintenance API listening on %s (uploads=%s)", addr, disk.Dir())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
