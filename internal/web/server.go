package web

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/imaging"
	"github.com/vbonduro/clandphoto/internal/metrics"
	"github.com/vbonduro/clandphoto/internal/service"
	"github.com/vbonduro/clandphoto/internal/vision"
	"github.com/vbonduro/clandphoto/internal/workflow"
)

// Deps are the collaborators a Server needs. Scheduler may be nil.
type Deps struct {
	Records        *service.RecordService
	Reports        *service.ReportService
	Admin          *service.AdminService
	Analyzer       vision.Analyzer
	Thumbnails     *imaging.Thumbnailer
	Templates      fs.FS
	Logger         *slog.Logger
	MaxUploadBytes int64
	AnalyzeTimeout time.Duration
	Scheduler      workflow.Scheduler
}

type Server struct {
	records   *service.RecordService
	reports   *service.ReportService
	admin     *service.AdminService
	thumbs    *imaging.Thumbnailer
	templates fs.FS
	sessions  *sessionManager
	router    chi.Router
	tmplFuncs template.FuncMap
	logger    *slog.Logger
	maxUpload int64
}

func NewServer(d Deps) *Server {
	s := &Server{
		records:   d.Records,
		reports:   d.Reports,
		admin:     d.Admin,
		thumbs:    d.Thumbnails,
		templates: d.Templates,
		router:    chi.NewRouter(),
		logger:    d.Logger.With("component", "web"),
		maxUpload: d.MaxUploadBytes,
		tmplFuncs: template.FuncMap{
			"inc":        func(i int) int { return i + 1 },
			"sub":        func(a, b int) int { return a - b },
			"date":       func(t time.Time) string { return t.Local().Format("02/01/2006") },
			"clock":      func(t time.Time) string { return t.Local().Format("15:04") },
			"datetime":   func(t time.Time) string { return t.Local().Format("02/01/2006 15:04") },
			"join":       strings.Join,
			"firstName":  func(u *domain.User) string { return u.FirstName() },
			"percentOf":  percentOf,
			"statusText": statusText,
		},
	}
	if s.maxUpload <= 0 {
		s.maxUpload = workflow.DefaultMaxBytes
	}
	s.sessions = newSessionManager(sessionConfig{
		analyzer:  d.Analyzer,
		sink:      d.Records,
		maxBytes:  s.maxUpload,
		timeout:   d.AnalyzeTimeout,
		scheduler: d.Scheduler,
		logger:    s.logger,
		userID:    s.currentUserID,
	})
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(metrics.Middleware(routePattern))
	r.Use(func(next http.Handler) http.Handler { return requestLogger(s.logger, next) })
	r.Use(securityHeaders)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.recordAccess)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/collect", s.handleCollectPage)
		r.Get("/users", s.handleUsersPage)
		r.Get("/reports", s.handleReportsPage)
		r.Get("/admin", s.handleAdminPage)
	})

	r.Get("/collect/state", s.handleCollectState)
	r.Get("/collect/preview", s.handleCollectPreview)
	r.Get("/collect/ws", s.handleCollectWS)
	r.Post("/collect/photo", s.handleSelectFile)
	r.Post("/collect/fields", s.handleUpdateFields)
	r.Post("/collect/confirm", s.handleConfirmSave)
	r.Post("/collect/retake", s.handleRetake)
	r.Post("/collect/reset", s.handleReset)
	r.Post("/collect/dismiss", s.handleDismissError)

	r.Post("/users", s.handleAddUser)
	r.Post("/users/{id}/status", s.handleUpdateUserStatus)
	r.Delete("/users/{id}", s.handleDeleteUser)

	r.Post("/reports/summary", s.handleReportSummary)
	r.Get("/photos/{id}/image", s.handlePhotoImage)
	r.Get("/photos/{id}/thumbnail", s.handlePhotoThumbnail)
	r.Delete("/photos/{id}", s.handleDeletePhoto)

	r.Post("/admin/unlock", s.handleAdminUnlock)
	r.Post("/admin/lock", s.handleAdminLock)
	r.Post("/admin/admins", s.handleAdminCreate)
	r.Post("/admin/clear", s.handleAdminClear)
}

// routePattern labels metrics with the matched chi pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return metrics.NormalizePath(r.URL.Path)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src https://fonts.gstatic.com; "+
				"img-src 'self' data: https:; "+
				"connect-src 'self' ws: wss:")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets the websocket upgrade reach the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// recordAccess logs a page view against the current user.
func (s *Server) recordAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := s.currentUserID(r.Context()); id != "" {
			if err := s.records.RecordAccess(r.Context(), id); err != nil {
				s.logger.Warn("failed to record access", "user_id", id, "error", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an *http.Server serving s on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// SweepSessions closes collection sessions idle for longer than maxIdle.
func (s *Server) SweepSessions(maxIdle time.Duration) int {
	return s.sessions.sweep(maxIdle)
}

// Close tears down every collection session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

func (s *Server) currentUser(r *http.Request) (*domain.User, error) {
	return s.records.CurrentUser(r.Context())
}

func (s *Server) currentUserID(ctx context.Context) string {
	u, err := s.records.CurrentUser(ctx)
	if err != nil {
		s.logger.Error("failed to resolve current user", "error", err)
		return ""
	}
	return u.ID
}

// layout is the data every full page needs for the navigation shell.
type layout struct {
	Title        string
	ActiveNav    string
	CurrentUser  *domain.User
	PendingCount int
}

func (s *Server) layoutFor(r *http.Request, nav, title string) (layout, error) {
	u, err := s.currentUser(r)
	if err != nil {
		return layout{}, fmt.Errorf("failed to get current user: %w", err)
	}
	pending, err := s.records.PendingUserCount(r.Context())
	if err != nil {
		return layout{}, fmt.Errorf("failed to count pending users: %w", err)
	}
	return layout{Title: title, ActiveNav: nav, CurrentUser: u, PendingCount: pending}, nil
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses and executes a single named partial template.
// The file must contain exactly one {{define "name"}}...{{end}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			return t.Execute(w, data)
		}
	}
	return tmpl.ExecuteTemplate(w, basename, data)
}

// percentOf scales n against max for bar widths.
func percentOf(n, max int) int {
	if max <= 0 {
		return 0
	}
	return n * 100 / max
}

func statusText(st domain.UserStatus) string {
	switch st {
	case domain.StatusActive:
		return "Active"
	case domain.StatusInactive:
		return "Blocked"
	case domain.StatusPending:
		return "Pending"
	default:
		return string(st)
	}
}
