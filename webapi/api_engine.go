package webapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"webshield/logger"
	"webshield/stats"
)

// handleStatus 返回引擎整体状态
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lists := s.engine.FilterLists()
	active := 0
	ruleCount := 0
	for _, l := range lists {
		if l.Enabled {
			active++
		}
		ruleCount += l.RuleCount
	}

	s.writeJSONSuccess(w, "", map[string]interface{}{
		"enabled":        s.engine.Enabled(),
		"blockingLevel":  s.engine.Level().String(),
		"rulesEnabled":   s.engine.RulesEnabled(),
		"filterLists":    len(lists),
		"activeLists":    active,
		"totalRuleCount": ruleCount,
		"stats":          s.engine.GetStats(),
		"system":         stats.SystemStats(),
	})
}

// handleEngineToggle 切换引擎总开关
func (s *Server) handleEngineToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Enabled {
		s.engine.Enable()
	} else {
		s.engine.Disable()
	}
	logger.Infof("Engine toggled via API: enabled=%v", req.Enabled)

	s.writeJSONSuccess(w, "Engine state updated", map[string]bool{"enabled": req.Enabled})
}

// handleBlockingLevel 读取或设置启发式拦截级别
func (s *Server) handleBlockingLevel(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSONSuccess(w, "", map[string]string{"level": s.engine.Level().String()})

	case http.MethodPost:
		var req struct {
			Level string `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.engine.SetBlockingLevel(req.Level); err != nil {
			s.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSONSuccess(w, "Blocking level updated", map[string]string{"level": req.Level})

	default:
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWhitelist 白名单的查询、添加与删除
func (s *Server) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSONSuccess(w, "", map[string]interface{}{"patterns": s.engine.Whitelist()})

	case http.MethodPost:
		var req struct {
			Pattern string `json:"pattern"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.engine.AddWhitelist(req.Pattern); err != nil {
			s.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSONSuccess(w, "Pattern added to whitelist", nil)

	case http.MethodDelete:
		pattern := strings.TrimSpace(r.URL.Query().Get("pattern"))
		if pattern == "" {
			s.writeJSONError(w, "Missing pattern parameter", http.StatusBadRequest)
			return
		}
		if err := s.engine.RemoveWhitelist(pattern); err != nil {
			s.writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.writeJSONSuccess(w, "Pattern removed from whitelist", nil)

	default:
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStats 返回拦截计数统计
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSONSuccess(w, "", s.engine.GetStats())
}

// handleClearStats 清零计数器
func (s *Server) handleClearStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.engine.ClearStats()
	logger.Info("Statistics cleared via API")
	s.writeJSONSuccess(w, "Statistics cleared", nil)
}

// handleRecentBlocks 最近被拦截的请求列表
func (s *Server) handleRecentBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSONSuccess(w, "", map[string]interface{}{"blocks": s.engine.RecentBlocks()})
}

// handleCheck 对单个 URL 试运行一次判定,便于调试规则
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.writeJSONError(w, "Missing url parameter", http.StatusBadRequest)
		return
	}
	requestType := r.URL.Query().Get("type")
	if requestType == "" {
		requestType = "other"
	}

	d := s.engine.Decide(rawURL, requestType)
	s.writeJSONSuccess(w, "", map[string]interface{}{
		"url":      rawURL,
		"type":     requestType,
		"blocked":  d.Blocked,
		"rule":     d.Rule,
		"listId":   d.ListID,
		"category": d.Category,
		"source":   d.Source,
	})
}
