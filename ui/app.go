// Package ui serves the chat front end: message handling, survey uploads,
// LP plan generation and the deck download.
package ui

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lpcore/adapters/llm"
	"lpcore/internal"
	"lpcore/internal/analysis"
	"lpcore/internal/config"
	lperrors "lpcore/internal/errors"
	"lpcore/internal/planner"
	"lpcore/internal/session"
)

//go:embed templates/*
var embeddedFiles embed.FS

// janitorInterval is how often expired sessions are swept.
const janitorInterval = 10 * time.Minute

// App wires the HTTP surface to the analysis pipeline and planner.
type App struct {
	router    *chi.Mux
	templates *template.Template
	cfg       *config.Config
	sessions  *session.Manager
	pipeline  *analysis.Pipeline
	planner   *planner.Planner
	log       *internal.Logger

	stopJanitor chan struct{}
}

// NewApp builds the application from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	sessions, err := session.NewManager(
		filepath.Join(cfg.Storage.TempDir, "lpcore-sessions"), cfg.Storage.SessionTTL)
	if err != nil {
		return nil, err
	}

	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, lperrors.Wrap(err, "parsing templates")
	}

	client := llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout)

	app := &App{
		router:      chi.NewRouter(),
		templates:   templates,
		cfg:         cfg,
		sessions:    sessions,
		pipeline:    analysis.NewPipeline(),
		planner:     planner.New(client, cfg.LLM),
		log:         internal.DefaultLogger,
		stopJanitor: make(chan struct{}),
	}

	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/chat", a.handleChat)
	a.router.Post("/upload", a.handleUpload)
	a.router.Post("/clear", a.handleClear)
	a.router.Get("/download/pptx", a.handleDownloadDeck)
}

// Router exposes the chi mux, mainly for tests.
func (a *App) Router() http.Handler {
	return a.router
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Start(ctx context.Context) error {
	a.sessions.StartJanitor(janitorInterval, a.stopJanitor)
	defer close(a.stopJanitor)

	server := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: a.cfg.LLM.Timeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening on :%s", a.cfg.Server.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
