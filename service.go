package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/config"
	"github.com/vizille/dashboard/internal/dashboard"
	"github.com/vizille/dashboard/internal/engine"
	"github.com/vizille/dashboard/internal/metrics"
	"github.com/vizille/dashboard/internal/source"
)

//go:embed public
var publicFS embed.FS

// -------- Dataset: one background fetch, status published to handlers --------

// Dataset holds the outcome of the startup fetch.
type Dataset struct {
	mu       sync.RWMutex
	status   string
	all      []*actions.Action
	err      error
	loadedAt time.Time
}

// NewDataset returns a dataset in the loading state.
func NewDataset() *Dataset { return &Dataset{status: metrics.StatusLoading} }

// Snapshot returns the current status, records and load error.
func (d *Dataset) Snapshot() (string, []*actions.Action, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status, d.all, d.err
}

// LoadedAt returns when the fetch finished, zero while loading.
func (d *Dataset) LoadedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadedAt
}

func (d *Dataset) set(all []*actions.Action, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadedAt = time.Now().UTC()
	if err != nil {
		d.status, d.err = metrics.StatusFailed, err
		return
	}
	d.status, d.all = metrics.StatusReady, all
}

// -------- Server --------

// Server wires the dataset, sessions and HTTP handlers together.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	metrics  *metrics.Metrics
	renderer *dashboard.Renderer

	data     *Dataset
	sessions *dashboard.Registry
	cleaner  *Cleaner
	limiter  *RateLimiter
	proxies  *ProxyTrust
	page     *template.Template
}

// NewServer prepares a server; the dataset is loaded separately.
func NewServer(cfg *config.Config, log *zap.Logger, m *metrics.Metrics, r *dashboard.Renderer) (*Server, error) {
	page, err := parsePage()
	if err != nil {
		return nil, err
	}
	var pt *ProxyTrust
	if len(cfg.RateLimit.TrustedProxies) > 0 {
		pt, err = NewProxyTrust(cfg.RateLimit.TrustedProxies)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES_CIDR: %w", err)
		}
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		renderer: r,
		data:     NewDataset(),
		limiter:  NewRateLimiter(cfg.RateLimit.RPM, cfg.RateLimit.Burst),
		proxies:  pt,
		page:     page,
	}
	s.sessions = dashboard.NewRegistry(cfg.GetSessionTTL(), s.newSession)
	s.cleaner = NewCleaner(CleanupConfig{
		Enabled:       true,
		CheckInterval: cfg.GetSweepInterval(),
	}, s.sessions, log.Named("sessions"), m)
	return s, nil
}

func (s *Server) newSession(id string) *dashboard.Session {
	_, all, _ := s.data.Snapshot()
	return dashboard.NewSession(id, all, s.renderer,
		dashboard.WithDebounce(s.cfg.GetSearchDebounce()),
		dashboard.WithObserver(func(c dashboard.Command) { s.metrics.CommandApplied(string(c.Type)) }),
	)
}

// LoadDataset performs the single fetch and publishes its outcome.
func (s *Server) LoadDataset(ctx context.Context, src source.Source) {
	log := s.log.Named("loader").With(zap.Stringer("source", src))
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GetFetchTimeout())
	defer cancel()

	start := time.Now()
	all, err := source.Load(ctx, src)
	if c, ok := src.(io.Closer); ok {
		_ = c.Close()
	}
	s.data.set(all, err)
	if err != nil {
		s.metrics.SetDatasetStatus(metrics.StatusFailed)
		log.Error("dataset load failed", zap.Error(err))
		return
	}
	s.metrics.SetDatasetStatus(metrics.StatusReady)
	s.metrics.SetDataset(all)
	log.Info("dataset loaded", zap.Int("records", len(all)), zap.Duration("took", time.Since(start)))
}

// Close drops every session.
func (s *Server) Close() { s.sessions.Close() }

func parsePage() (*template.Template, error) {
	return template.New("dashboard.html").Funcs(templateFuncs).ParseFS(publicFS, "public/templates/dashboard.html")
}

func staticHandler() (http.Handler, error) {
	staticFS, err := fs.Sub(publicFS, "public/static")
	if err != nil {
		return nil, err
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))), nil
}

// newRenderer builds the theme table and locale formatter from cfg.
func newRenderer(cfg *config.Config) (*dashboard.Renderer, error) {
	themes := actions.DefaultThemes()
	if cfg.ThemesFile != "" {
		t, err := actions.LoadThemes(cfg.ThemesFile)
		if err != nil {
			return nil, err
		}
		themes = t
	}
	return dashboard.NewRenderer(themes, engine.NewFormatter(cfg.LocaleTag())), nil
}

func sourceOptions(cfg *config.Config) source.Options {
	return source.Options{
		Timeout: cfg.GetFetchTimeout(),
		S3: source.S3Config{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     os.Getenv("VIZILLE_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("VIZILLE_S3_SECRET_ACCESS_KEY"),
		},
	}
}

// serve runs the HTTP server, the dataset fetch and the background
// sweepers until ctx is cancelled or a signal arrives.
func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	srv, err := NewServer(cfg, log, metrics.New(), renderer)
	if err != nil {
		return err
	}
	defer srv.Close()

	src, err := source.Open(ctx, cfg.Source, sourceOptions(cfg))
	if err != nil {
		return fmt.Errorf("open dataset source: %w", err)
	}
	handler, err := srv.Routes()
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.LoadDataset(gctx, src)
		return nil
	})
	g.Go(func() error { return srv.cleaner.Run(gctx) })
	g.Go(func() error {
		srv.limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("vizille dashboard listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
