package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"pickit/internal/adapter/rules/yamlrules"
	"pickit/internal/app/agent"
	"pickit/internal/app/ports"
	"pickit/internal/app/selection"
	"pickit/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const defaultJournalLimit = 50
const maxJournalLimit = 500

// Control is the programmatic bridge into a running agent.
type Control interface {
	Status() agent.Status
	Candidates() []selection.Candidate
	IsActive() bool
	SetOverride(running bool)
	SetEnabled(enabled bool)
	SetDebugHighlight(on bool)
	Highlights() []selection.Candidate
	SetFilterTest(rule string)
	FilterResult() (agent.FilterResult, bool)
	LastProfile() (agent.Profile, bool)
	Fatigue() agent.FatigueInfo
	ResetFatigue(level float64)
	RuleSets() []ports.RuleSet
	SetRuleSetEnabled(name string, enabled bool) error
	ReloadRules(ctx context.Context) error
}

type Handler struct {
	Agent   Control
	Journal ports.AttemptJournal
	KPI     kpiSnapshotProvider
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	api := s.Group("/api/pickit")
	api.GET("/status", h.status)
	api.GET("/candidates", h.candidates)
	api.GET("/active", h.active)
	api.POST("/override", h.override)
	api.POST("/enable", h.enable)
	api.POST("/debug", h.debug)
	api.GET("/highlights", h.highlights)
	api.GET("/filter-test", h.filterResult)
	api.POST("/filter-test", h.setFilterTest)
	api.GET("/rules", h.ruleSets)
	api.POST("/rules/toggle", h.toggleRuleSet)
	api.POST("/rules/reload", h.reloadRules)
	api.GET("/journal", h.journal)
	api.GET("/fatigue", h.fatigue)
	api.POST("/fatigue/reset", h.resetFatigue)
	api.GET("/profile", h.profile)

	s.GET("/ops/kpi", h.kpi)
}

type switchRequest struct {
	Enabled *bool `json:"enabled"`
}

type overrideRequest struct {
	Running *bool `json:"running"`
}

type filterTestRequest struct {
	Rule string `json:"rule"`
}

type toggleRuleSetRequest struct {
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
}

type fatigueResetRequest struct {
	Level *float64 `json:"level"`
}

var ErrMissingField = errors.New("missing required field")

func (h Handler) status(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Agent.Status())
}

func (h Handler) candidates(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"candidates": h.Agent.Candidates()})
}

func (h Handler) active(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"active": h.Agent.IsActive()})
}

func (h Handler) override(_ context.Context, ctx *app.RequestContext) {
	var body overrideRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Running == nil {
		writeError(ctx, fieldError("running"))
		return
	}
	h.Agent.SetOverride(*body.Running)
	ctx.JSON(consts.StatusOK, h.Agent.Status())
}

func (h Handler) enable(_ context.Context, ctx *app.RequestContext) {
	var body switchRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Enabled == nil {
		writeError(ctx, fieldError("enabled"))
		return
	}
	h.Agent.SetEnabled(*body.Enabled)
	ctx.JSON(consts.StatusOK, h.Agent.Status())
}

func (h Handler) debug(_ context.Context, ctx *app.RequestContext) {
	var body switchRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Enabled == nil {
		writeError(ctx, fieldError("enabled"))
		return
	}
	h.Agent.SetDebugHighlight(*body.Enabled)
	ctx.JSON(consts.StatusOK, h.Agent.Status())
}

func (h Handler) highlights(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"highlights": h.Agent.Highlights()})
}

func (h Handler) setFilterTest(_ context.Context, ctx *app.RequestContext) {
	var body filterTestRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.Agent.SetFilterTest(strings.TrimSpace(body.Rule))
	ctx.JSON(consts.StatusOK, map[string]any{"rule": strings.TrimSpace(body.Rule)})
}

func (h Handler) filterResult(_ context.Context, ctx *app.RequestContext) {
	res, ok := h.Agent.FilterResult()
	if !ok {
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", "no filter result yet")
		return
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) ruleSets(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"rule_sets": h.Agent.RuleSets()})
}

func (h Handler) toggleRuleSet(_ context.Context, ctx *app.RequestContext) {
	var body toggleRuleSetRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeError(ctx, fieldError("name"))
		return
	}
	if body.Enabled == nil {
		writeError(ctx, fieldError("enabled"))
		return
	}
	if err := h.Agent.SetRuleSetEnabled(name, *body.Enabled); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"rule_sets": h.Agent.RuleSets()})
}

func (h Handler) reloadRules(c context.Context, ctx *app.RequestContext) {
	if err := h.Agent.ReloadRules(c); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"rule_sets": h.Agent.RuleSets()})
}

func (h Handler) journal(c context.Context, ctx *app.RequestContext) {
	if h.Journal == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "attempt journal not configured")
		return
	}
	limit := defaultJournalLimit
	if raw := strings.TrimSpace(string(ctx.Query("limit"))); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}
	records, err := h.Journal.Recent(c, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"attempts": records})
}

func (h Handler) fatigue(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Agent.Fatigue())
}

func (h Handler) resetFatigue(_ context.Context, ctx *app.RequestContext) {
	var body fatigueResetRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	level := 0.0
	if body.Level != nil {
		level = *body.Level
	}
	if level < 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "level must not be negative")
		return
	}
	h.Agent.ResetFatigue(level)
	ctx.JSON(consts.StatusOK, h.Agent.Fatigue())
}

func (h Handler) profile(_ context.Context, ctx *app.RequestContext) {
	p, ok := h.Agent.LastProfile()
	if !ok {
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", "no profile recorded")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"elapsed_ms": float64(p.Elapsed.Microseconds()) / 1000,
		"handle":     p.Handle,
		"base_name":  p.BaseName,
		"distance":   p.Distance,
		"at":         p.At,
	})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

type missingFieldError struct {
	field string
}

func (e missingFieldError) Error() string { return e.field + " is required" }
func (e missingFieldError) Unwrap() error { return ErrMissingField }

func fieldError(field string) error {
	return missingFieldError{field: field}
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrMissingField):
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, agent.ErrNoRules):
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", err.Error())
	case errors.Is(err, yamlrules.ErrMissingRuleFile),
		errors.Is(err, yamlrules.ErrInvalidRuleFile),
		errors.Is(err, yamlrules.ErrInvalidRulesPath),
		errors.Is(err, config.ErrInvalidSettings):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "invalid_rules", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusGatewayTimeout, "timeout", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
