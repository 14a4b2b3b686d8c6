package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"caretrace-escalation/internal/config"
	"caretrace-escalation/internal/models"
	"caretrace-escalation/internal/repository"
)

// TrendComputer 趋势计算接口
type TrendComputer interface {
	ComputeTrends(ctx context.Context, subjectID string, windowDays, maxRecords int) (*models.TrendResult, error)
}

// TrendCache 趋势缓存接口（Get 未命中返回错误，由调用方回源计算）
type TrendCache interface {
	Get(ctx context.Context, subjectID string) (*models.TrendResult, error)
	Put(ctx context.Context, subjectID string, result *models.TrendResult) error
}

// AlertsStore 升级报警事件查询接口
type AlertsStore interface {
	ListRecentBySubject(ctx context.Context, subjectID string, limit int) ([]models.EscalationEvent, error)
}

// TrendHandler 趋势与报警查询 API
type TrendHandler struct {
	config   *config.Config
	computer TrendComputer
	cache    TrendCache
	alerts   AlertsStore
	logger   *zap.Logger
}

func NewTrendHandler(cfg *config.Config, computer TrendComputer, cache TrendCache, alerts AlertsStore, logger *zap.Logger) *TrendHandler {
	return &TrendHandler{
		config:   cfg,
		computer: computer,
		cache:    cache,
		alerts:   alerts,
		logger:   logger,
	}
}

// GET /escalation/api/v1/subjects/{id}/trends
// params:
// - days? number (default 30)
// - max? number (default 200)
// - refresh? 1 跳过缓存强制回源
func (h *TrendHandler) GetTrends(w http.ResponseWriter, r *http.Request, subjectID string) {
	ctx := r.Context()

	days := parseInt(r.URL.Query().Get("days"), h.config.Trend.DefaultWindowDays)
	maxRecords := parseInt(r.URL.Query().Get("max"), h.config.Trend.MaxRecords)
	refresh := r.URL.Query().Get("refresh") == "1"

	// 仅默认窗口走缓存（缓存键不区分窗口参数）
	cacheable := h.cache != nil &&
		days == h.config.Trend.DefaultWindowDays &&
		maxRecords == h.config.Trend.MaxRecords

	if cacheable && !refresh {
		if cached, err := h.cache.Get(ctx, subjectID); err == nil {
			writeJSON(w, http.StatusOK, Ok(cached))
			return
		}
	}

	result, err := h.computer.ComputeTrends(ctx, subjectID, days, maxRecords)
	if err != nil {
		if errors.Is(err, repository.ErrHistoryUnavailable) {
			h.logger.Warn("History unavailable for trends",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusBadGateway, Fail("history unavailable"))
			return
		}
		h.logger.Error("Failed to compute trends",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to compute trends"))
		return
	}

	if cacheable {
		if err := h.cache.Put(ctx, subjectID, result); err != nil {
			h.logger.Warn("Failed to cache trends",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

// GET /escalation/api/v1/subjects/{id}/alerts
// params:
// - limit? number (default 20)
func (h *TrendHandler) GetAlerts(w http.ResponseWriter, r *http.Request, subjectID string) {
	ctx := r.Context()

	limit := parseInt(r.URL.Query().Get("limit"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	events, err := h.alerts.ListRecentBySubject(ctx, subjectID, limit)
	if err != nil {
		h.logger.Error("Failed to list escalation events",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list alerts"))
		return
	}
	if events == nil {
		events = []models.EscalationEvent{}
	}

	writeJSON(w, http.StatusOK, Ok(events))
}

// GET /healthz
func (h *TrendHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
