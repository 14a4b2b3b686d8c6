package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterTrendRoutes 注册趋势/报警查询路由
func (r *Router) RegisterTrendRoutes(h *TrendHandler) {
	// subjects/{id}/trends 与 subjects/{id}/alerts
	r.Handle("/escalation/api/v1/subjects/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, "/escalation/api/v1/subjects/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		subjectID := parts[0]
		switch parts[1] {
		case "trends":
			h.GetTrends(w, req, subjectID)
		case "alerts":
			h.GetAlerts(w, req, subjectID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		h.Healthz(w, req)
	})
}
