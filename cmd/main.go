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

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"vision-detect/config"
	telegram "vision-detect/internal/api/telegram"
	"vision-detect/internal/api/web"
	"vision-detect/internal/container"
	"vision-detect/internal/domain/port"
	"vision-detect/internal/infrastructure/loader"
	"vision-detect/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	setupLogging(cfg)

	if cfg.SentryDSN != "" {
		if err := raven.SetDSN(cfg.SentryDSN); err != nil {
			log.Fatalf("Failed to configure Sentry: %v", err)
		}
	}

	// Модель загружается один раз и живёт до выхода
	detector, closeDetector, err := newDetector(cfg)
	if err != nil {
		log.Fatalf("Failed to load detector: %v", err)
	}
	defer closeDetector()

	format, err := loader.ParseFormat(cfg.OutputFormat)
	if err != nil {
		log.Fatalf("Invalid output format: %v", err)
	}

	// Собираем сервисы приложения
	appContainer := container.New(nil, detector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.DetectionService, cfg.OutputQuality)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		go func() {
			log.Info("[Main] Bot is running...")
			if err := bot.Run(ctx); err != nil {
				log.Errorf("Bot error: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: web.NewServer(appContainer.DetectionService, format, cfg.OutputQuality).Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Server shutdown: %v", err)
		}
	}()

	log.WithField("addr", srv.Addr).Info("[Main] Starting web server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Release {
		log.Info("[Main] Starting gin in release mode!")
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&log.JSONFormatter{})
	}
}

// newDetector выбирает бэкенд по DETECTOR.
func newDetector(cfg *config.Config) (port.ObjectDetector, func(), error) {
	switch cfg.Detector {
	case config.DetectorRemote:
		d := vision.NewRemoteDetector(cfg.InferenceURL, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.CheckHealth(ctx); err != nil {
			log.WithError(err).Warn("[Main] Inference service is not healthy yet")
		}
		return d, func() {}, nil
	default:
		d, err := vision.NewGoCVDetector(cfg.ModelPath, cfg.ModelWorkers)
		if err != nil {
			return nil, nil, err
		}
		log.WithFields(log.Fields{"model": cfg.ModelPath, "workers": cfg.ModelWorkers}).Info("[Main] Model loaded")
		return d, func() { _ = d.Close() }, nil
	}
}
