// Command svgcropd serves the SVG crop API over HTTP.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eryk-dev/svg-crop-api/archive"
	"github.com/Eryk-dev/svg-crop-api/crop"
	"github.com/Eryk-dev/svg-crop-api/internal/fetch"
	"github.com/Eryk-dev/svg-crop-api/pipeline"
)

const serviceName = "svg-crop-api"

type config struct {
	addr         string
	workers      int
	fetchTimeout time.Duration
	jpegQuality  int
	debug        bool
}

func loadConfig() config {
	cfg := config{
		addr:         envOr("SVGCROP_ADDR", ":8000"),
		workers:      envOrInt("SVGCROP_WORKERS", 4),
		fetchTimeout: envOrDuration("SVGCROP_FETCH_TIMEOUT", 30*time.Second),
		jpegQuality:  envOrInt("SVGCROP_JPEG_QUALITY", crop.DefaultJPEGQuality),
	}
	flag.StringVar(&cfg.addr, "addr", cfg.addr, "listen address")
	flag.IntVar(&cfg.workers, "workers", cfg.workers, "concurrent region workers")
	flag.DurationVar(&cfg.fetchTimeout, "fetch-timeout", cfg.fetchTimeout, "timeout for the image fetch phase")
	flag.IntVar(&cfg.jpegQuality, "jpeg-quality", cfg.jpegQuality, "jpeg encode quality")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	flag.Parse()
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func main() {
	cfg := loadConfig()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
	if cfg.debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	client := fetch.NewClient(nil)
	pipe := pipeline.New(client,
		pipeline.WithWorkers(cfg.workers),
		pipeline.WithFetchTimeout(cfg.fetchTimeout),
		pipeline.WithJPEGQuality(cfg.jpegQuality),
		pipeline.WithLogger(log),
	)

	srv := &server{log: log, client: client, pipe: pipe}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleRoot)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/crop-svg", srv.handleCrop)

	hs := &http.Server{
		Addr:         cfg.addr,
		Handler:      srv.logRequests(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		hs.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.addr).Msg("listening")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("shut down")
}

type server struct {
	log    zerolog.Logger
	client *fetch.Client
	pipe   *pipeline.Pipeline
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": serviceName,
		"endpoints": map[string]string{
			"POST /crop-svg": "crop images referenced by an SVG along its clip regions",
			"GET /health":    "health check",
		},
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

type cropRequest struct {
	SvgURL       string `json:"svg_url"`
	OutputFormat string `json:"output_format"`
}

type cropResponse struct {
	Success          bool   `json:"success"`
	Filename         string `json:"filename"`
	FileBase64       string `json:"file_base64"`
	FileSize         int    `json:"file_size"`
	RegionsProcessed int    `json:"regions_processed"`
	ImagesDownloaded int    `json:"images_downloaded"`
}

func (s *server) handleCrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SvgURL == "" {
		writeError(w, http.StatusBadRequest, "svg_url is required")
		return
	}
	format := crop.PNG
	if req.OutputFormat != "" {
		f, err := crop.ParseFormat(req.OutputFormat)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	ctx := r.Context()
	svg, err := s.client.FetchSVG(ctx, req.SvgURL)
	if err != nil {
		s.log.Warn().Err(err).Str("svg_url", req.SvgURL).Msg("svg download failed")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("downloading svg: %s", err))
		return
	}

	doc, err := pipeline.Parse(bytes.NewReader(svg), req.SvgURL)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result := s.pipe.Run(ctx, doc, format)
	if !result.Success() {
		s.log.Warn().
			Int("regions_total", result.RegionsTotal).
			Int("regions_failed", len(result.RegionFailures)).
			Msg("no region produced a crop")
		writeError(w, http.StatusUnprocessableEntity, "no clip region could be processed")
		return
	}

	zipped, err := archive.Build(result.Results)
	if err != nil {
		s.log.Error().Err(err).Msg("archive assembly failed")
		writeError(w, http.StatusInternalServerError, "assembling archive failed")
		return
	}

	writeJSON(w, http.StatusOK, cropResponse{
		Success:          true,
		Filename:         archive.Filename,
		FileBase64:       base64.StdEncoding.EncodeToString(zipped),
		FileSize:         len(zipped),
		RegionsProcessed: len(result.Results),
		ImagesDownloaded: result.ImagesFetched,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
