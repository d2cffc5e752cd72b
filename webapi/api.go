package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"webshield/config"
	"webshield/engine"
	"webshield/logger"
)

// APIResponse 统一的 API 响应格式
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Server Web API 服务器
type Server struct {
	cfg      *config.Config
	engine   *engine.Engine
	listener http.Server

	// 串行化规则更新请求
	updateMu sync.Mutex
	updating bool
}

// NewServer 创建新的 Web API 服务器
func NewServer(cfg *config.Config, eng *engine.Engine) *Server {
	return &Server{
		cfg:    cfg,
		engine: eng,
	}
}

// Start 启动 Web API 服务
func (s *Server) Start() error {
	if !s.cfg.WebUI.Enabled {
		logger.Info("WebAPI is disabled")
		return nil
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/engine/toggle", s.handleEngineToggle)
	mux.HandleFunc("/api/engine/level", s.handleBlockingLevel)
	mux.HandleFunc("/api/whitelist", s.handleWhitelist)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/stats/clear", s.handleClearStats)
	mux.HandleFunc("/api/recent-blocks", s.handleRecentBlocks)
	mux.HandleFunc("/api/check", s.handleCheck)

	// 订阅列表路由
	mux.HandleFunc("/api/filterlists", s.handleFilterLists)
	mux.HandleFunc("/api/filterlists/toggle", s.handleFilterListToggle)
	mux.HandleFunc("/api/filterlists/update", s.handleFilterListUpdate)

	mux.HandleFunc("/health", s.handleHealth)

	addr := fmt.Sprintf(":%d", s.cfg.WebUI.ListenPort)
	s.listener = http.Server{
		Addr:    addr,
		Handler: s.corsMiddleware(mux),
	}

	logger.Infof("Web API server started on http://localhost:%d", s.cfg.WebUI.ListenPort)
	if err := s.listener.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	return s.listener.Shutdown(ctx)
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeJSONError 写入 JSON 错误响应
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Message: message,
	})
}

// writeJSONSuccess 写入 JSON 成功响应
func (s *Server) writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// corsMiddleware CORS 中间件
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
