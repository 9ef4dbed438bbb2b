package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"healthtrack/clinic-core/internal/auth"
	"healthtrack/clinic-core/internal/config"
	"healthtrack/clinic-core/internal/dashboard"
)

type AuthService interface {
	Login(username, password string) (auth.Session, error)
	Resolve(cookieHeader string) (auth.User, error)
	Logout(token string)
	ActiveSessions() int
}

type DashboardService interface {
	Stats() (dashboard.Stats, error)
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

type Deps struct {
	Auth            AuthService
	Dashboard       DashboardService
	Audit           AuditLogger
	FrontendDistDir string
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// route binds one (method, path) pair to a handler. The table below is the
// full API surface; every path not in it falls through to the HTML shell.
type route struct {
	method  string
	path    string
	handler http.HandlerFunc
}

type apiHandler struct {
	deps   Deps
	byPath map[string]map[string]http.HandlerFunc
	shell  http.HandlerFunc
}

func NewHandler(deps Deps) http.Handler {
	h := &apiHandler{
		deps:   deps,
		byPath: make(map[string]map[string]http.HandlerFunc),
		shell:  shellHandler(deps.FrontendDistDir),
	}

	table := []route{
		{http.MethodPost, "/login", h.handleLogin},
		{http.MethodGet, "/check-auth", h.handleCheckAuth},
		{http.MethodPost, "/logout", h.handleLogout},
		{http.MethodGet, "/dashboard-stats", h.handleDashboardStats},
		{http.MethodGet, "/healthz", handleHealthz},
		{http.MethodGet, "/readyz", handleReadyz},
		{http.MethodGet, "/v1/info", h.handleInfo},
	}
	for _, rt := range table {
		if h.byPath[rt.path] == nil {
			h.byPath[rt.path] = make(map[string]http.HandlerFunc)
		}
		h.byPath[rt.path][rt.method] = rt.handler
	}

	return h
}

func (h *apiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	byMethod, ok := h.byPath[r.URL.Path]
	if !ok {
		h.shell(w, r)
		return
	}
	handler, ok := byMethod[r.Method]
	if !ok {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	handler(w, r)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReadyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *apiHandler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	info := map[string]any{
		"service": "healthtrack-api",
		"version": "0.1.0",
	}
	if h.deps.Auth != nil {
		info["active_sessions"] = h.deps.Auth.ActiveSessions()
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *apiHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.deps.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	session, err := h.deps.Auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// One message for unknown user and wrong password alike.
			auditReq(h.deps.Audit, r, req.Username, "auth.login", "", "failed", "invalid credentials")
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"message": "Invalid credentials",
			})
			return
		}
		auditReq(h.deps.Audit, r, req.Username, "auth.login", "", "failed", err.Error())
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, sessionCookie(session.Token))
	auditReq(h.deps.Audit, r, session.Username, "auth.login", "", "success", "")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"id":       session.UserID,
			"username": session.Username,
			"role":     session.Role,
		},
	})
}

func (h *apiHandler) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if h.deps.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
		return
	}

	u, err := h.deps.Auth.Resolve(r.Header.Get("Cookie"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		writeError(w, http.StatusInternalServerError, "check auth failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":       u.ID,
			"username": u.Username,
			"role":     u.Role,
		},
	})
}

func (h *apiHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if h.deps.Auth != nil {
		if token := auth.SessionToken(r.Header.Get("Cookie")); token != "" {
			h.deps.Auth.Logout(token)
		}
	}

	// The cookie is cleared whether or not a session existed.
	http.SetCookie(w, clearedSessionCookie())
	auditReq(h.deps.Audit, r, "", "auth.logout", "", "success", "")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *apiHandler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if h.deps.Dashboard == nil {
		writeError(w, http.StatusServiceUnavailable, "dashboard service unavailable")
		return
	}

	stats, err := h.deps.Dashboard.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "dashboard stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

const sessionCookieName = "session"

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func clearedSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1, // serializes as Max-Age=0
	}
}

// shellHandler serves the client application. With a built frontend dist
// directory it serves the SPA with an index fallback; otherwise it serves
// the built-in shell page.
func shellHandler(distDir string) http.HandlerFunc {
	distDir = strings.TrimSpace(distDir)
	if distDir != "" {
		indexPath := filepath.Join(distDir, "index.html")
		if _, err := os.Stat(indexPath); err == nil {
			fileServer := http.FileServer(http.Dir(distDir))
			return func(w http.ResponseWriter, r *http.Request) {
				cleanPath := path.Clean(r.URL.Path)
				if cleanPath == "." || cleanPath == "/" {
					http.ServeFile(w, r, indexPath)
					return
				}
				fullPath := filepath.Join(distDir, strings.TrimPrefix(cleanPath, "/"))
				info, err := os.Stat(fullPath)
				if err == nil && !info.IsDir() {
					fileServer.ServeHTTP(w, r)
					return
				}
				// SPA fallback.
				http.ServeFile(w, r, indexPath)
			}
		}
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(builtinShell))
	}
}

const builtinShell = `<!DOCTYPE html>
<html>
  <head>
    <title>HealthTrack</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
  </head>
  <body>
    <div id="root"></div>
    <script type="module" src="/assets/app.js"></script>
  </body>
</html>
`

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = newRequestID()
		}
		w.Header().Set("X-Request-Id", reqID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
	})
}

type requestIDKey struct{}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(requestIDKey{})
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func auditReq(a AuditLogger, r *http.Request, actor, action, target, outcome, detail string) {
	if a == nil {
		return
	}
	parts := []string{
		"rid=" + requestIDFromContext(r.Context()),
		"ip=" + clientIP(r),
	}
	if strings.TrimSpace(detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(detail))
	}
	_ = a.Log(actor, action, target, outcome, strings.Join(parts, " | "))
}
