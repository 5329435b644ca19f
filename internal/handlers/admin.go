package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alishahabi1/patient-appointment-booking/internal/admin"
)

type AdminHandler struct {
	sessions *admin.Sessions
	logger   *slog.Logger
}

func NewAdminHandler(sessions *admin.Sessions, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login serves POST /admin/login. A correct password yields a signed session
// cookie valid for eight hours.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if !h.sessions.VerifyPassword(req.Password) {
		h.logger.Warn("admin login rejected")
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	cookie, err := h.sessions.IssueCookie()
	if err != nil {
		h.logger.Error("session cookie issue failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Logout serves POST /admin/logout and clears the session cookie.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	http.SetCookie(w, h.sessions.ClearedCookie())
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
