package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Naiara/pdf-biratu/internal/cache"
	cfgpkg "github.com/Naiara/pdf-biratu/internal/config"
	"github.com/Naiara/pdf-biratu/internal/decide"
	"github.com/Naiara/pdf-biratu/internal/geometry"
	logpkg "github.com/Naiara/pdf-biratu/internal/logger"
	"github.com/Naiara/pdf-biratu/internal/metrics"
	"github.com/Naiara/pdf-biratu/internal/ocr"
	"github.com/Naiara/pdf-biratu/internal/osd"
	"github.com/Naiara/pdf-biratu/internal/pipeline"
	"github.com/Naiara/pdf-biratu/internal/raster"
	"github.com/Naiara/pdf-biratu/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	osdDet := osd.New(cfg.Detect.TesseractBin, cfg.Detect.OCRLanguages)
	if !osdDet.IsAvailable() {
		log.Warn().Str("bin", cfg.Detect.TesseractBin).Msg("tesseract binary not found; orientation detection will rely on geometry only")
	}
	geom := geometry.NewDetector()

	// Optional decision cache
	var dc *cache.DecisionCache
	if cfg.Cache.RedisURL != "" {
		var err error
		dc, err = cache.New(cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable; running without decision cache")
			dc = nil
		} else {
			defer dc.Close()
		}
	}

	pipe := pipeline.New(pipeline.Deps{
		Opener: raster.FitzOpener{},
		OSD:    osdDet,
		CV:     pipeline.GeometryAdapter{Detector: geom},
		OCR:    ocr.NewTesseractRecognizer(cfg.Detect.OCRLanguages),
		Skew:   geom.EstimateSkew,
		Cache:  dc,
	}, pipeline.Options{
		RenderDPI:       cfg.Render.DPI,
		MaxImageSide:    cfg.Render.MaxImageSide,
		JPEGQuality:     cfg.Render.JPEGQuality,
		Decide:          decideConfig(cfg),
		PageTimeout:     cfg.Detect.PageTimeout,
		Concurrency:     cfg.Detect.Concurrency,
		DeskewEnabled:   cfg.Deskew.Enabled,
		DeskewThreshold: cfg.Deskew.Threshold,
		DeskewForce:     cfg.Deskew.Force,
	})

	mux := http.NewServeMux()
	api := web.New(pipe, cfg.Server)
	api.RegisterRoutes(mux)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}

func decideConfig(cfg cfgpkg.Config) decide.Config {
	return decide.Config{
		VoteMinChars: cfg.Detect.VoteMinChars,
		VoteMargin:   cfg.Detect.VoteMargin,
	}
}
