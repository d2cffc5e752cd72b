package webapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"webshield/logger"
)

// handleFilterLists 返回全部订阅列表及其状态
func (s *Server) handleFilterLists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSONSuccess(w, "", map[string]interface{}{"lists": s.engine.FilterLists()})
}

// handleFilterListToggle 启用或禁用单个订阅列表
func (s *Server) handleFilterListToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		s.writeJSONError(w, "Missing list id", http.StatusBadRequest)
		return
	}

	var err error
	if req.Enabled {
		err = s.engine.EnableFilterList(req.ID)
	} else {
		err = s.engine.DisableFilterList(req.ID)
	}
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	logger.Infof("Filter list %s toggled via API: enabled=%v", req.ID, req.Enabled)
	s.writeJSONSuccess(w, "Filter list updated", map[string]interface{}{
		"id":      req.ID,
		"enabled": req.Enabled,
	})
}

// handleFilterListUpdate 手动触发一次全量规则更新
// 更新在后台进行,同一时刻只允许一个更新任务
func (s *Server) handleFilterListUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.updateMu.Lock()
	if s.updating {
		s.updateMu.Unlock()
		s.writeJSONError(w, "An update is already in progress", http.StatusConflict)
		return
	}
	s.updating = true
	s.updateMu.Unlock()

	go func() {
		defer func() {
			s.updateMu.Lock()
			s.updating = false
			s.updateMu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := s.engine.UpdateAllFilterLists(ctx); err != nil {
			logger.Errorf("Filter list update failed: %v", err)
			return
		}
		logger.Info("Filter list update finished")
	}()

	s.writeJSONSuccess(w, "Filter list update started", nil)
}
