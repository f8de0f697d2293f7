package restapi

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/svc/tablesvc"
	"github.com/yusufsyaifudin/layang/pkg/tracer"
	"github.com/yusufsyaifudin/layang/pkg/validator"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlerattach"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlercfg"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlercsv"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlergen"
	"github.com/yusufsyaifudin/layang/transport/restapi/handleroutbox"
)

type Config struct {
	AppServiceName string               `validate:"required"`
	AppVersion     string               `validate:"required"`
	ConfigStore    *config.Store        `validate:"required"`
	TableService   tablesvc.Service     `validate:"required"`
	Dispatcher     *mailfile.Dispatcher `validate:"required"`
}

type DefaultHTTP struct {
	router *chi.Mux
}

func NewHTTPTransport(cfg Config) (*DefaultHTTP, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("http transport cfg error: %w", err)
	}

	// ** CSV table handler
	handlerCSV, err := handlercsv.NewHandler(handlercsv.HandlerConfig{
		ConfigStore:  cfg.ConfigStore,
		TableService: cfg.TableService,
	})
	if err != nil {
		return nil, err
	}

	// ** Generation handler
	handlerGen, err := handlergen.NewHandler(handlergen.HandlerConfig{
		ConfigStore:  cfg.ConfigStore,
		TableService: cfg.TableService,
		Dispatcher:   cfg.Dispatcher,
	})
	if err != nil {
		return nil, err
	}

	// ** Config and template handler
	handlerCfg, err := handlercfg.NewHandler(handlercfg.HandlerConfig{
		ConfigStore: cfg.ConfigStore,
	})
	if err != nil {
		return nil, err
	}

	// ** Outbox handler
	handlerOutbox, err := handleroutbox.NewHandler(handleroutbox.HandlerConfig{
		ConfigStore: cfg.ConfigStore,
	})
	if err != nil {
		return nil, err
	}

	// ** Attachment library handler
	handlerAttach, err := handlerattach.NewHandler(handlerattach.HandlerConfig{
		ConfigStore: cfg.ConfigStore,
	})
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	skip := func(r *http.Request) bool {
		p := strings.TrimSpace(path.Clean(r.URL.Path))
		switch p {
		case "/health",
			"/ping",
			"/api/v1/emails/download-all/zip":
			return true
		}

		// downloads stream binary payloads, uploads are logged with a
		// placeholder body instead
		if strings.HasSuffix(p, "/download") {
			return true
		}

		return false
	}

	router.Use(middleware.StripSlashes)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Use(func(next http.Handler) http.Handler {
		return tracer.Middleware(tracer.MiddlewareConfig{
			TracerName:     "github.com/yusufsyaifudin/layang",
			ServiceName:    cfg.AppServiceName,
			SkipFunc:       skip,
			TracerProvider: otel.GetTracerProvider(),    // global tracer provider
			TextPropagator: otel.GetTextMapPropagator(), // use global text map propagator
		}, next)
	})

	// add trace id and also log request response
	router.Use(func(next http.Handler) http.Handler {
		return requestLogger(skip, next)
	})

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ping": "pong"}`))
	})

	// Resource: csv table
	router.Route("/api/v1/csv", func(r chi.Router) {
		r.Post("/", handlerCSV.Upload())           // upload and ingest csv
		r.Get("/", handlerCSV.Get())               // current working rows
		r.Put("/", handlerCSV.Replace())           // replace rows from editor
		r.Post("/validate", handlerCSV.Validate()) // email + attachment checks
	})

	// Resource: config and template
	router.Route("/api/v1/config", func(r chi.Router) {
		r.Get("/", handlerCfg.GetConfig())
		r.Put("/", handlerCfg.PutConfig())
	})
	router.Route("/api/v1/template", func(r chi.Router) {
		r.Get("/", handlerCfg.GetTemplate())
		r.Put("/", handlerCfg.PutTemplate())
		r.Post("/preview", handlerCfg.PreviewTemplate())
	})

	// Resource: generation
	router.Post("/api/v1/generate", handlerGen.Generate())

	// Resource: generated emails
	router.Route("/api/v1/emails", func(r chi.Router) {
		r.Get("/", handlerOutbox.List())
		r.Get("/download-all/zip", handlerOutbox.ZipAll())
		r.Get("/{filename}", handlerOutbox.Detail())
		r.Get("/{filename}/download", handlerOutbox.Download())
	})

	// Resource: attachment library
	router.Route("/api/v1/attachments", func(r chi.Router) {
		r.Post("/", handlerAttach.Upload())
		r.Get("/", handlerAttach.List())
		r.Delete("/{filename}", handlerAttach.Delete())
	})

	router.Get("/api/v1/stats", handlerOutbox.Stats())

	instance := &DefaultHTTP{
		router: router,
	}

	return instance, nil
}

// Server .
func (a *DefaultHTTP) Server() http.Handler {
	return a.router
}
