package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/service"
	"github.com/vbonduro/clandphoto/internal/store"
)

const (
	maxNameLen  = 120
	maxEmailLen = 200
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	base, err := s.layoutFor(r, "dashboard", "Dashboard")
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		s.logger.Error("dashboard layout failed", "error", err)
		return
	}
	stats, err := s.reports.Dashboard(r.Context())
	if err != nil {
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		s.logger.Error("dashboard stats failed", "error", err)
		return
	}

	maxPhotos := 0
	for _, p := range stats.PhotosByUser {
		maxPhotos = max(maxPhotos, p.Photos)
	}

	if err := s.renderPage(w,
		map[string]any{"Layout": base, "Stats": stats, "MaxPhotos": maxPhotos},
		"base.html", "pages/dashboard.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	base, err := s.layoutFor(r, "users", "Users")
	if err != nil {
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		s.logger.Error("users layout failed", "error", err)
		return
	}
	users, err := s.records.ListUsers(r.Context())
	if err != nil {
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		s.logger.Error("list users failed", "error", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{"Layout": base, "Users": users},
		"base.html", "pages/users.html", "partials/user_row.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	role := domain.Role(r.FormValue("role"))
	if role == "" {
		role = domain.RoleCollector
	}
	if len(name) > maxNameLen || len(email) > maxEmailLen {
		http.Error(w, "name or email too long", http.StatusBadRequest)
		return
	}

	user, err := s.records.AddUser(r.Context(), name, email, role)
	if errors.Is(err, service.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "failed to add user", http.StatusInternalServerError)
		s.logger.Error("add user failed", "error", err)
		return
	}

	w.Header().Set("HX-Trigger", "pending-changed")
	if err := s.renderPartial(w, "partials/user_row.html", user); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleUpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status := domain.UserStatus(r.FormValue("status"))

	err := s.records.UpdateUserStatus(r.Context(), id, status)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, store.ErrUserNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		http.Error(w, "failed to update user", http.StatusInternalServerError)
		s.logger.Error("update user status failed", "user_id", id, "error", err)
		return
	}

	user, err := s.records.GetUser(r.Context(), id)
	if err != nil || user == nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		s.logger.Error("get user failed", "user_id", id, "error", err)
		return
	}
	w.Header().Set("HX-Trigger", "pending-changed")
	if err := s.renderPartial(w, "partials/user_row.html", user); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.records.RemoveUser(r.Context(), id)
	if errors.Is(err, store.ErrUserNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to delete user", http.StatusInternalServerError)
		s.logger.Error("delete user failed", "user_id", id, "error", err)
		return
	}

	w.Header().Set("HX-Redirect", "/users")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReportsPage(w http.ResponseWriter, r *http.Request) {
	base, err := s.layoutFor(r, "reports", "Reports")
	if err != nil {
		http.Error(w, "failed to load reports", http.StatusInternalServerError)
		s.logger.Error("reports layout failed", "error", err)
		return
	}
	cards, err := s.reports.Report(r.Context())
	if err != nil {
		http.Error(w, "failed to load reports", http.StatusInternalServerError)
		s.logger.Error("report failed", "error", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{"Layout": base, "Cards": cards},
		"base.html", "pages/reports.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleReportSummary asks the Summarizer for an executive summary. Failures
// come back as fallback text, never as an error status.
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.reports.Summary(r.Context())
	if err := s.renderPartial(w, "partials/summary.html", summary); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	s.renderAdmin(w, r, http.StatusOK, "", "")
}

// renderAdmin draws the admin page with an optional error or notice.
func (s *Server) renderAdmin(w http.ResponseWriter, r *http.Request, status int, errMsg, notice string) {
	sess := s.sessions.get(w, r)
	base, err := s.layoutFor(r, "admin", "Administration")
	if err != nil {
		http.Error(w, "failed to load admin", http.StatusInternalServerError)
		s.logger.Error("admin layout failed", "error", err)
		return
	}
	_, unlocked := sess.adminUnlocked()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderPage(w,
		map[string]any{"Layout": base, "Unlocked": unlocked, "Error": errMsg, "Notice": notice},
		"base.html", "pages/admin.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleAdminUnlock(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	password := r.FormValue("password")
	if err := s.admin.Unlock(password); err != nil {
		s.renderAdmin(w, r, http.StatusForbidden, err.Error(), "")
		return
	}
	sess.unlockAdmin(password)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleAdminLock(w http.ResponseWriter, r *http.Request) {
	s.sessions.get(w, r).unlockAdmin("")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	password, ok := sess.adminUnlocked()
	if !ok {
		s.renderAdmin(w, r, http.StatusForbidden, service.ErrWrongPassword.Error(), "")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	user, err := s.admin.CreateAdmin(r.Context(), password, name, email)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		s.renderAdmin(w, r, http.StatusBadRequest, err.Error(), "")
		return
	case errors.Is(err, service.ErrWrongPassword):
		sess.unlockAdmin("")
		s.renderAdmin(w, r, http.StatusForbidden, err.Error(), "")
		return
	case err != nil:
		s.logger.Error("create admin failed", "error", err)
		s.renderAdmin(w, r, http.StatusInternalServerError, "Failed to create administrator.", "")
		return
	}
	s.renderAdmin(w, r, http.StatusOK, "", "Administrator "+user.Name+" created.")
}

func (s *Server) handleAdminClear(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	if _, ok := sess.adminUnlocked(); !ok {
		s.renderAdmin(w, r, http.StatusForbidden, service.ErrWrongPassword.Error(), "")
		return
	}

	err := s.admin.ClearData(r.Context(), r.FormValue("password"))
	if errors.Is(err, service.ErrWrongPassword) {
		s.renderAdmin(w, r, http.StatusForbidden, err.Error(), "")
		return
	}
	if err != nil {
		s.logger.Error("clear data failed", "error", err)
		s.renderAdmin(w, r, http.StatusInternalServerError, "Failed to clear data.", "")
		return
	}
	s.thumbs.Purge()
	s.renderAdmin(w, r, http.StatusOK, "", "All data cleared.")
}
