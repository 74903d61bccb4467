package main

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/dashboard"
	"github.com/vizille/dashboard/internal/engine"
	"github.com/vizille/dashboard/internal/metrics"
)

const (
	sessionCookie   = "vizille_session"
	maxCommandBytes = 8 << 10
	loadErrorText   = "❌ Erreur de chargement des données"
	rateLimitedText = "Trop de requêtes, réessayez dans un instant."
)

// Routes builds the HTTP handler tree.
func (s *Server) Routes() (http.Handler, error) {
	static, err := staticHandler()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.observeRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	r.Handle("/static/*", static)

	r.Get("/", s.handleIndex)
	r.With(s.rateLimit(false)).Post("/actions", s.handleForm)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.With(s.rateLimit(true)).Post("/commands", s.handleCommand)
		r.Get("/actions/{id}", s.handleAction)
		r.Get("/charts", s.handleCharts)
	})
	return r, nil
}

// -------- Middleware --------

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		s.metrics.RequestServed(route, strconv.Itoa(code))
		if s.cfg.Logging.RequestLogging {
			s.log.Info("request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", code),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
			)
		}
	})
}

// rateLimit rejects clients whose bucket is empty. JSON callers get a
// JSON error; form posts get a short text page.
func (s *Server) rateLimit(asJSON bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter.Allow(clientKey(r, s.proxies)) {
				next.ServeHTTP(w, r)
				return
			}
			s.metrics.RateLimited()
			w.Header().Set("Retry-After", strconv.Itoa(s.limiter.RetryAfter()))
			if asJSON {
				writeError(w, http.StatusTooManyRequests, "rate limited")
				return
			}
			http.Error(w, rateLimitedText, http.StatusTooManyRequests)
		})
	}
}

// -------- Helpers --------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// ready returns the loaded collection, or answers 503 while the dataset
// is loading or after it failed.
func (s *Server) ready(w http.ResponseWriter) ([]*actions.Action, bool) {
	status, all, err := s.data.Snapshot()
	switch status {
	case metrics.StatusReady:
		return all, true
	case metrics.StatusFailed:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": status,
			"error":  err.Error(),
		})
	default:
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": status})
	}
	return nil, false
}

// session returns the caller's session, issuing a cookie for a new one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.sessions.Acquire(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			MaxAge:   int(s.cfg.GetSessionTTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		s.metrics.SetSessions(s.sessions.Len())
	}
	return sess
}

// -------- Handlers --------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, all, err := s.data.Snapshot()
	body := map[string]any{
		"status":  status,
		"records": len(all),
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if status != metrics.StatusReady {
		code = http.StatusServiceUnavailable
	}
	if at := s.data.LoadedAt(); !at.IsZero() {
		body["loaded_at"] = at.Format(time.RFC3339)
	}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, code, body)
}

type pageData struct {
	Status     string
	Error      string
	View       dashboard.View
	DebounceMS int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status, _, err := s.data.Snapshot()
	data := pageData{Status: status, DebounceMS: s.cfg.GetSearchDebounce().Milliseconds()}
	code := http.StatusOK
	switch status {
	case metrics.StatusReady:
		data.View = s.session(w, r).View()
	case metrics.StatusFailed:
		data.Error = loadErrorText
		s.log.Debug("serving load error page", zap.Error(err))
		code = http.StatusServiceUnavailable
	}
	s.renderPage(w, code, data)
}

func (s *Server) renderPage(w http.ResponseWriter, code int, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.log.Error("render dashboard page", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.ready(w); !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.session(w, r).View())
}

type commandResponse struct {
	View    dashboard.View     `json:"view"`
	Effects []dashboard.Effect `json:"effects"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.ready(w); !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCommandBytes)
	cmd, err := dashboard.DecodeCommand(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := s.session(w, r)
	view, effects, err := sess.Dispatch(cmd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("flush") == "1" && sess.Flush() {
		view = sess.View()
	}
	if effects == nil {
		effects = []dashboard.Effect{}
	}
	writeJSON(w, http.StatusOK, commandResponse{View: view, Effects: effects})
}

// handleForm is the script-free command path: every control posts here
// and the browser is redirected back to the dashboard.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if status, _, _ := s.data.Snapshot(); status != metrics.StatusReady {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCommandBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	cmd, err := commandFromForm(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess := s.session(w, r)
	_, effects, err := sess.Dispatch(cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess.Flush()

	target := "/"
	for _, e := range effects {
		if e == dashboard.EffectScrollToResults {
			target = "/#resultats"
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func commandFromForm(form url.Values) (dashboard.Command, error) {
	cmd := dashboard.Command{
		Type:  dashboard.CommandType(form.Get("type")),
		Value: form.Get("value"),
		Chart: engine.ChartID(form.Get("chart")),
	}
	if raw := form.Get("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return dashboard.Command{}, err
		}
		cmd.Index = n
	}
	return cmd, cmd.Validate()
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	all, ok := s.ready(w)
	if !ok {
		return
	}
	id := actions.Text(chi.URLParam(r, "id"))
	i := actions.Find(all, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "action not found")
		return
	}
	d := dashboard.NewDetail(all[i], s.renderer.Themes(), s.renderer.Formatter())
	d.Position, d.Total, d.Navigable = i+1, len(all), len(all) > 1
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	all, ok := s.ready(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, engine.Charts(all, s.renderer.Themes()))
}

// -------- Template helpers --------

var templateFuncs = template.FuncMap{
	"value": chartValue,
	"share": chartShare,
	"color": chartColor,
}

func chartValue(c engine.Chart, i int) float64 {
	if len(c.Series) == 0 || i >= len(c.Series[0].Values) {
		return 0
	}
	return c.Series[0].Values[i]
}

// chartShare is the bar width of category i as a percentage of the
// largest category.
func chartShare(c engine.Chart, i int) int {
	if len(c.Series) == 0 {
		return 0
	}
	var top float64
	for _, v := range c.Series[0].Values {
		top = max(top, v)
	}
	if top == 0 {
		return 0
	}
	return int(chartValue(c, i) / top * 100)
}

func chartColor(c engine.Chart, i int) string {
	if len(c.Series) > 0 && i < len(c.Series[0].Colors) {
		return c.Series[0].Colors[i]
	}
	if c.ID == engine.ChartStatuses && i < len(c.Labels) {
		return actions.Status(c.Labels[i]).Color()
	}
	return "#3498db"
}
