package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dronemesh/pkg/observability"
)

// logHooks reports pipeline, cache and API events as debug log lines.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnThinStart(ctx context.Context, nodes, floor int) {
	h.logger.Debug("thin start", "nodes", nodes, "floor", floor)
}

func (h *logHooks) OnThinComplete(ctx context.Context, removed int, reason string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("thin failed", "error", err, "duration", d)
		return
	}
	h.logger.Debug("thin complete", "removed", removed, "reason", reason, "duration", d)
}

func (h *logHooks) OnRenderStart(ctx context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *logHooks) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "formats", formats, "error", err, "duration", d)
		return
	}
	h.logger.Debug("render complete", "formats", formats, "duration", d)
}

func (h *logHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(ctx context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *logHooks) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.ServerHooks   = (*logHooks)(nil)
)
