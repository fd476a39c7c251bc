package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/woodcraft-crm/leadflow-api/internal/auth"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"go.uber.org/zap"
)

// maxAuditBody bounds how much of a request or response body is kept
const maxAuditBody = 64 << 10

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths are path prefixes that are never audited
	SkipPaths []string
}

// DefaultAuditConfig skips notification bookkeeping
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{"/api/v1/notifications"},
	}
}

// AuditMiddleware records every successful mutation with its actor
type AuditMiddleware struct {
	auditService *service.AuditLogService
	config       *AuditConfig
	logger       *zap.Logger
}

func NewAuditMiddleware(auditService *service.AuditLogService, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		auditService: auditService,
		config:       config,
		logger:       logger,
	}
}

// Audit must run after authentication
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		var requestBody []byte
		if r.Body != nil && !isMultipart(r) && r.Method != http.MethodDelete {
			requestBody, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), r.Body))
		}

		var responseBody bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&limitedWriter{buf: &responseBody, max: maxAuditBody})

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 200 || status >= 300 {
			return
		}
		m.logAudit(r, requestBody, responseBody.Bytes())
	})
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	for _, p := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, p) {
			return false
		}
	}
	return true
}

func (m *AuditMiddleware) logAudit(r *http.Request, requestBody, responseBody []byte) {
	if m.auditService == nil {
		return
	}
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		return
	}

	pattern := r.URL.Path
	routeCtx := chi.RouteContext(r.Context())
	if routeCtx != nil && routeCtx.RoutePattern() != "" {
		pattern = routeCtx.RoutePattern()
	}

	response := decodeObject(responseBody)
	entry := service.LogEntry{
		Action:     methodToAction(r.Method, pattern),
		EntityType: entityFromPattern(pattern),
		NewValues:  decodeObject(requestBody),
	}
	if isMultipart(r) {
		entry.NewValues = response
	}

	if routeCtx != nil {
		if id, err := strconv.ParseInt(routeCtx.URLParam("id"), 10, 64); err == nil && strings.Contains(pattern, "/leads/{id}") {
			entry.LeadID = &id
		}
		entry.EntityID = routeCtx.URLParam("intentId")
		if entry.EntityID == "" && entry.EntityType == "Lead" {
			entry.EntityID = routeCtx.URLParam("id")
		}
		if entry.EntityID == "" {
			entry.EntityID = routeCtx.URLParam("stage")
		}
	}
	if v, ok := response["intentId"]; ok {
		entry.EntityID = stringValue(v)
	} else if v, ok := response["id"]; ok && entry.EntityID == "" {
		entry.EntityID = stringValue(v)
	}
	if entry.LeadID == nil && entry.EntityType == "Lead" {
		if id, err := strconv.ParseInt(entry.EntityID, 10, 64); err == nil {
			entry.LeadID = &id
		}
	}
	if lead, ok := response["lead"].(map[string]any); ok && entry.LeadID == nil {
		if id, err := strconv.ParseInt(stringValue(lead["id"]), 10, 64); err == nil {
			entry.LeadID = &id
		}
	}

	meta := service.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: r.Header.Get(RequestIDHeader),
		Route:     r.Method + " " + pattern,
	}
	if err := m.auditService.Log(context.WithoutCancel(r.Context()), actor, meta, entry); err != nil {
		m.logger.Warn("failed to create audit log entry",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
	}
}

func methodToAction(method, pattern string) domain.AuditAction {
	switch {
	case method == http.MethodPost && strings.HasSuffix(pattern, "/confirm"):
		return domain.AuditActionConfirm
	case method == http.MethodPost:
		return domain.AuditActionCreate
	case method == http.MethodDelete:
		return domain.AuditActionDelete
	default:
		return domain.AuditActionUpdate
	}
}

var entityBySegment = map[string]string{
	"leads":              "Lead",
	"readiness":          "ReadinessFacts",
	"documents":          "LeadDocument",
	"stage-transitions":  "StageTransition",
	"status-transitions": "StatusTransition",
	"intents":            "TransitionIntent",
}

// entityFromPattern names the innermost known resource of a route
func entityFromPattern(pattern string) string {
	entity := "Unknown"
	for _, part := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if e, ok := entityBySegment[part]; ok {
			entity = e
		}
	}
	return entity
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

func decodeObject(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var out map[string]any
	if json.Unmarshal(body, &out) != nil {
		return nil
	}
	return out
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return ""
	}
}

type limitedWriter struct {
	buf *bytes.Buffer
	max int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if room := l.max - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}
