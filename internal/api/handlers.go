package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/service"
	"github.com/h0rv/flowcanvas/internal/settings"
	"github.com/h0rv/flowcanvas/internal/views"
	"github.com/rs/zerolog"
)

// Caller identity headers set by the host.
const (
	AccountIDHeader  = "X-Account-Id"
	CloudIDHeader    = "X-Cloud-Id"
	ProjectKeyHeader = "X-Project-Key"
)

// Service is the set of operations the API serves.
type Service interface {
	GetBootstrap(ctx context.Context, caller domain.Caller) (service.Bootstrap, error)
	QueryAggregate(ctx context.Context, caller domain.Caller, req service.AggregateRequest) (domain.AggregateResult, error)
	ListIssues(ctx context.Context, caller domain.Caller, req service.ListRequest) ([]domain.IssueSummary, error)
	ExportIssuesCSV(ctx context.Context, caller domain.Caller, req service.ListRequest) (service.Export, error)
	SaveView(ctx context.Context, caller domain.Caller, v domain.SavedView) (domain.SavedView, error)
	ListViews(ctx context.Context, caller domain.Caller) ([]domain.SavedView, error)
	DeleteView(ctx context.Context, caller domain.Caller, name string) (service.DeleteResult, error)
	GetAdminConfig(ctx context.Context, caller domain.Caller) (service.AdminConfigView, error)
	SaveAdminConfig(ctx context.Context, caller domain.Caller, p settings.Patch) (domain.AdminConfig, error)
	GetPerfSnapshot(ctx context.Context, caller domain.Caller) (*domain.PerfSample, error)
	AuditLog(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}

// Handlers serves the API routes.
type Handlers struct {
	log      zerolog.Logger
	svc      Service
	validate *validator.Validate
}

// NewHandlers creates Handlers over svc.
func NewHandlers(log zerolog.Logger, svc Service) *Handlers {
	return &Handlers{log: log, svc: svc, validate: validator.New()}
}

func callerFrom(c *gin.Context) domain.Caller {
	return domain.Caller{
		AccountID:  c.GetHeader(AccountIDHeader),
		CloudID:    c.GetHeader(CloudIDHeader),
		ProjectKey: c.GetHeader(ProjectKeyHeader),
	}
}

// bind decodes the JSON body into v and checks its validate tags.
func (h *Handlers) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.fail(c, domain.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.fail(c, domain.NewValidationError(err.Error()))
		return false
	}
	return true
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Bootstrap(c *gin.Context) {
	b, err := h.svc.GetBootstrap(c.Request.Context(), callerFrom(c))
	h.respond(c, b, err)
}

func (h *Handlers) Aggregate(c *gin.Context) {
	var req service.AggregateRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.svc.QueryAggregate(c.Request.Context(), callerFrom(c), req)
	h.respond(c, res, err)
}

func (h *Handlers) Issues(c *gin.Context) {
	var req service.ListRequest
	if !h.bind(c, &req) {
		return
	}
	rows, err := h.svc.ListIssues(c.Request.Context(), callerFrom(c), req)
	h.respond(c, gin.H{"issues": rows}, err)
}

// Export returns the CSV wrapped in JSON, or the raw file when download=1.
func (h *Handlers) Export(c *gin.Context) {
	var req service.ListRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.svc.ExportIssuesCSV(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.Query("download") == "1" {
		c.Header("Content-Disposition", `attachment; filename="`+out.FileName+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out.Content))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) ListViews(c *gin.Context) {
	list, err := h.svc.ListViews(c.Request.Context(), callerFrom(c))
	h.respond(c, gin.H{"views": list}, err)
}

// viewBody is the payload of a save-view request.
type viewBody struct {
	Name       string `json:"name"`
	JQL        string `json:"jql"`
	TimeWindow string `json:"timeWindow"`
	ViewType   string `json:"viewType" validate:"omitempty,oneof=flow distribution canvas"`
}

func (h *Handlers) SaveView(c *gin.Context) {
	var body viewBody
	if !h.bind(c, &body) {
		return
	}
	saved, err := h.svc.SaveView(c.Request.Context(), callerFrom(c), domain.SavedView{
		Name:       body.Name,
		JQL:        body.JQL,
		TimeWindow: body.TimeWindow,
		ViewType:   body.ViewType,
	})
	h.respond(c, saved, err)
}

func (h *Handlers) DeleteView(c *gin.Context) {
	res, err := h.svc.DeleteView(c.Request.Context(), callerFrom(c), c.Param("name"))
	h.respond(c, res, err)
}

func (h *Handlers) AdminConfig(c *gin.Context) {
	cfg, err := h.svc.GetAdminConfig(c.Request.Context(), callerFrom(c))
	h.respond(c, cfg, err)
}

func (h *Handlers) SaveAdminConfig(c *gin.Context) {
	var p settings.Patch
	if !h.bind(c, &p) {
		return
	}
	cfg, err := h.svc.SaveAdminConfig(c.Request.Context(), callerFrom(c), p)
	h.respond(c, cfg, err)
}

func (h *Handlers) Perf(c *gin.Context) {
	sample, err := h.svc.GetPerfSnapshot(c.Request.Context(), callerFrom(c))
	h.respond(c, gin.H{"perf": sample}, err)
}

func (h *Handlers) Audit(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		h.fail(c, domain.NewValidationError("limit must be a non-negative integer"))
		return
	}
	events, err := h.svc.AuditLog(c.Request.Context(), limit)
	h.respond(c, gin.H{"events": events}, err)
}

func (h *Handlers) respond(c *gin.Context, body any, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

// fail writes err as {"error": {"code", "message"}} with a status chosen by its type.
func (h *Handlers) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", c.GetString(RequestIDHeader)).Str("p", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": err.Error()}})
}

func classify(err error) (int, string) {
	var (
		invalid    *domain.ValidationError
		permission *domain.PermissionError
		upstream   *domain.UpstreamError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &permission):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, views.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &upstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
