package subscription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"webshield/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := &config.FilterListsConfig{
		Enabled:             true,
		CacheDir:            t.TempDir(),
		FetchTimeoutSeconds: 2,
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return m
}

func TestRefreshAllSettledWithUnreachableSource(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("! good list\n||blocked.example^\n"))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	m := newTestManager(t)
	mustRegister(t, m, "good", ListConfig{Name: "Good", URL: good.URL, Category: "ads", Priority: "high"})
	mustRegister(t, m, "bad", ListConfig{Name: "Bad", URL: bad.URL, Category: "privacy", Priority: "high"})

	// 一个源不可达时 RefreshAll 仍须正常完成
	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}

	if _, _, matched := m.Match("blocked.example", "https://blocked.example/x"); !matched {
		t.Error("Expected reachable list's rules to be installed")
	}

	var goodStatus, badStatus ListStatus
	for _, s := range m.Statuses() {
		switch s.ID {
		case "good":
			goodStatus = s
		case "bad":
			badStatus = s
		}
	}
	if goodStatus.Status != "active" || goodStatus.RuleCount != 1 {
		t.Errorf("Expected good list active with 1 rule, got %+v", goodStatus)
	}
	if badStatus.Status != "failed" {
		t.Errorf("Expected bad list status 'failed', got %q", badStatus.Status)
	}
	if badStatus.RuleCount != 0 {
		t.Errorf("Expected bad list to keep empty rule set, got %d rules", badStatus.RuleCount)
	}
}

func TestRefreshFailureKeepsPreviousRules(t *testing.T) {
	failing := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Write([]byte("||ads.example^\n"))
	}))
	defer srv.Close()

	m := newTestManager(t)
	mustRegister(t, m, "flaky", ListConfig{Name: "Flaky", URL: srv.URL, Category: "ads", Priority: "high"})

	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	if _, _, matched := m.Match("ads.example", "https://ads.example/"); !matched {
		t.Fatal("Expected rules installed after first refresh")
	}

	failing = true
	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	// 失败的刷新不得清空已有规则
	if _, _, matched := m.Match("ads.example", "https://ads.example/"); !matched {
		t.Error("Expected previous rules to survive a failed refresh")
	}
}

func TestDisableKeepsCachedRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("||ads.example^\n"))
	}))
	defer srv.Close()

	m := newTestManager(t)
	mustRegister(t, m, "ads", ListConfig{Name: "Ads", URL: srv.URL, Category: "ads", Priority: "high"})
	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}

	if err := m.DisableList("ads"); err != nil {
		t.Fatalf("DisableList failed: %v", err)
	}
	if _, _, matched := m.Match("ads.example", "https://ads.example/"); matched {
		t.Error("Disabled list must not be consulted")
	}

	// 重新启用无须重新抓取
	if err := m.EnableList("ads"); err != nil {
		t.Fatalf("EnableList failed: %v", err)
	}
	if _, _, matched := m.Match("ads.example", "https://ads.example/"); !matched {
		t.Error("Re-enabled list must use its cached rules")
	}
}

func TestMatchCategoryAttribution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("||tracker.example^\n"))
	}))
	defer srv.Close()

	m := newTestManager(t)
	mustRegister(t, m, "privacy-list", ListConfig{Name: "P", URL: srv.URL, Category: "privacy", Priority: "high"})
	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}

	rule, category, matched := m.Match("sub.tracker.example", "https://sub.tracker.example/t.gif")
	if !matched {
		t.Fatal("Expected a match")
	}
	if category != "privacy" {
		t.Errorf("Expected category 'privacy', got %q", category)
	}
	if rule.Raw != "||tracker.example^" {
		t.Errorf("Expected rule attribution, got %q", rule.Raw)
	}
}

func TestVersionBumpsOnRuleChanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("||ads.example^\n"))
	}))
	defer srv.Close()

	m := newTestManager(t)
	before := m.Version()
	mustRegister(t, m, "ads", ListConfig{Name: "Ads", URL: srv.URL, Category: "ads", Priority: "high"})
	if m.Version() == before {
		t.Error("Expected version bump on registration")
	}

	v := m.Version()
	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	if m.Version() == v {
		t.Error("Expected version bump after refresh installed rules")
	}
}

func TestCustomRulesFileCreated(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.FilterListsConfig{
		Enabled:         true,
		CacheDir:        filepath.Join(tmpDir, "cache"),
		CustomRulesFile: filepath.Join(tmpDir, "custom_rules.txt"),
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := m.RegisterCatalog(); err != nil {
		t.Fatalf("RegisterCatalog failed: %v", err)
	}

	content, err := os.ReadFile(cfg.CustomRulesFile)
	if err != nil {
		t.Fatalf("Expected custom rules file to be created: %v", err)
	}
	if len(content) == 0 {
		t.Error("Custom rules file is empty")
	}
	if m.Get(CustomListID) == nil {
		t.Error("Custom list was not registered")
	}
}

// mustRegister 注册一个不自动抓取的测试列表
func mustRegister(t *testing.T, m *Manager, id string, lc ListConfig) {
	t.Helper()
	if err := m.register(id, lc, true); err != nil {
		t.Fatalf("Failed to register %s: %v", id, err)
	}
}
