// Package middleware enforces session and role policy before handlers run.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/auth/authz"
	"github.com/brailletranslate/backend/internal/auth/session"
	"github.com/brailletranslate/backend/internal/metrics"
	"github.com/brailletranslate/backend/internal/models"
)

// Landing pages used by the guard's redirects
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	NextParam     = "next"
)

// SessionResolver is the subset of the session issuer the guard needs
type SessionResolver interface {
	// ValidateStructure checks the raw credential without touching the store
	ValidateStructure(raw string) bool
	// Resolve returns models.ErrSessionInvalid for stale credentials and a wrapped error on store failure
	Resolve(ctx context.Context, raw string) (*models.Account, error)
	// ClearCookie expires the session cookie
	ClearCookie(w http.ResponseWriter)
}

// RouteGuard is the single choke point every request passes through
type RouteGuard struct {
	sessions SessionResolver
	routes   *authz.RouteTable
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRouteGuard creates a route guard. metrics may be nil.
func NewRouteGuard(sessions SessionResolver, routes *authz.RouteTable, m *metrics.Metrics, logger *zap.Logger) *RouteGuard {
	if routes == nil {
		routes = authz.DefaultRouteTable()
	}
	return &RouteGuard{
		sessions: sessions,
		routes:   routes,
		metrics:  m,
		logger:   logger,
	}
}

// Middleware returns the guard as chi-compatible middleware
func (g *RouteGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		routePath, ok := routingPath(r)
		if !ok {
			g.record("invalid", metrics.DecisionRejected)
			g.respondError(w, http.StatusBadRequest, "invalid path")
			return
		}
		route := g.routes.Classify(routePath)
		class := string(route.Class)
		api := isAPIPath(routePath)

		raw, hasCookie := session.FromRequest(r)
		if hasCookie && !g.sessions.ValidateStructure(raw) {
			// Corrupted, forged or expired credential never reaches a handler
			g.sessions.ClearCookie(w)
			if api {
				g.record(class, metrics.DecisionUnauthorized)
				g.respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			g.record(class, metrics.DecisionRedirectLogin)
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		var account *models.Account
		if hasCookie {
			resolved, err := g.sessions.Resolve(r.Context(), raw)
			switch {
			case err == nil:
				account = resolved
			case errors.Is(err, models.ErrSessionInvalid):
				// Account vanished or credential revoked
				g.sessions.ClearCookie(w)
			default:
				g.logger.Error("failed to resolve session",
					zap.String("path", routePath),
					zap.String("class", class),
					zap.Error(err))
				g.record(class, metrics.DecisionError)
				g.respondError(w, http.StatusInternalServerError, "internal server error")
				return
			}
		}

		if route.GuestOnly && account != nil {
			g.record(class, metrics.DecisionRedirectHome)
			http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			return
		}

		decision := authz.Authorize(account, route.Class)
		if !decision.Allowed {
			g.deny(w, r, class, api, decision)
			return
		}

		g.record(class, metrics.DecisionAllow)
		if account != nil {
			r = r.WithContext(WithAccount(r.Context(), account))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *RouteGuard) deny(w http.ResponseWriter, r *http.Request, class string, api bool, decision authz.Decision) {
	switch decision.Reason {
	case authz.ReasonInsufficientRole:
		if api {
			g.record(class, metrics.DecisionForbidden)
			g.respondError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		g.record(class, metrics.DecisionRedirectHome)
		http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
	default:
		if api {
			g.record(class, metrics.DecisionUnauthorized)
			g.respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		g.record(class, metrics.DecisionRedirectLogin)
		http.Redirect(w, r, LoginRedirectTarget(r.URL), http.StatusSeeOther)
	}
}

// LoginRedirectTarget builds the login URL carrying the originally requested path
func LoginRedirectTarget(requested *url.URL) string {
	next := requested.Path
	if requested.RawQuery != "" {
		next += "?" + requested.RawQuery
	}
	return LoginPath + "?" + url.Values{NextParam: {next}}.Encode()
}

// SafeNext returns the return-to path if it is a local absolute path, otherwise the dashboard
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DashboardPath
	}
	return next
}

func (g *RouteGuard) record(class, decision string) {
	g.metrics.RecordGuardDecision(class, decision)
}

func (g *RouteGuard) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		g.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// routingPath returns the path chi dispatches on: its cleaned RoutePath when set,
// otherwise the raw path. Paths with encoded separators are refused.
func routingPath(r *http.Request) (string, bool) {
	escaped := strings.ToLower(r.URL.EscapedPath())
	if strings.Contains(escaped, "%2f") || strings.Contains(escaped, "%5c") {
		return "", false
	}
	p := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePath != "" {
		p = rctx.RoutePath
	} else if r.URL.RawPath != "" {
		p = r.URL.RawPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p), true
}

func isAPIPath(p string) bool {
	return strings.HasPrefix(p, "/api/") || p == "/api" ||
		strings.HasPrefix(p, "/internal/") || p == "/metrics"
}
