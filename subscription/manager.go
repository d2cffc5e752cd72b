package subscription

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"webshield/config"
	"webshield/logger"
	"webshield/rules"
)

const maxConcurrentFetches = 5

// Manager owns the subscription catalog: registration, enable/disable,
// concurrent refresh and the compiled per-list rule sets consulted by
// the matcher.
type Manager struct {
	cfg     *config.FilterListsConfig
	fetcher *Fetcher

	mu          sync.RWMutex
	lists       map[string]*List
	order       []*List // priority order for matching
	metaFile    string
	pendingMeta map[string]listMeta // loaded before lists register

	// version is bumped on every observable rule change so decision
	// caches can invalidate themselves.
	version atomic.Uint64

	flight singleflight.Group
}

// NewManager creates a Manager and loads persisted fetch metadata.
func NewManager(cfg *config.FilterListsConfig) (*Manager, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:      cfg,
		fetcher:  NewFetcher(cfg),
		lists:    make(map[string]*List),
		metaFile: filepath.Join(cfg.CacheDir, "lists_meta.json"),
	}
	if err := m.loadMeta(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("[Subscription] Failed to load list metadata: %v", err)
	}
	return m, nil
}

// RegisterCatalog registers the built-in catalog, applying per-list
// enabled overrides from configuration and pointing the custom list at
// the configured local rules file.
func (m *Manager) RegisterCatalog() error {
	for _, lc := range Catalog() {
		if lc.ID == CustomListID {
			lc.URL = m.cfg.CustomRulesFile
			if err := m.ensureCustomRulesFile(lc.URL); err != nil {
				return err
			}
		}
		enabled := lc.EnabledByDefault
		if override, ok := m.cfg.Overrides[lc.ID]; ok {
			enabled = override
		}
		if err := m.register(lc.ID, lc, enabled); err != nil {
			return err
		}
	}
	return nil
}

// AddList registers a subscription and, if enabled, triggers an
// immediate background fetch+parse.
func (m *Manager) AddList(id string, lc ListConfig) error {
	if err := m.register(id, lc, lc.EnabledByDefault); err != nil {
		return err
	}
	if lc.EnabledByDefault {
		go func() {
			if err := m.refreshOne(context.Background(), m.Get(id)); err != nil {
				logger.Warnf("[Subscription] Initial fetch of %s failed: %v", id, err)
			}
			m.saveMeta()
		}()
	}
	return nil
}

func (m *Manager) register(id string, lc ListConfig, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.lists[id]; exists {
		return fmt.Errorf("list %q already registered", id)
	}
	lc.ID = id

	l := &List{Config: lc}
	l.enabled.Store(enabled)
	h := sha256.Sum256([]byte(lc.URL))
	l.cacheFile = "list_" + hex.EncodeToString(h[:16]) + ".txt"
	l.status = "active"

	// 恢复上一次运行持久化的抓取元数据
	if meta, ok := m.pendingMeta[id]; ok {
		l.etag = meta.ETag
		l.lastModified = meta.LastModified
		l.lastUpdate = meta.LastUpdate
		l.failCount = meta.FailCount
		if meta.Status != "" {
			l.status = meta.Status
		}
	}

	m.lists[id] = l
	m.rebuildOrderLocked()
	m.version.Add(1)
	return nil
}

// rebuildOrderLocked recomputes the priority-ordered match slice.
// Caller must hold m.mu.
func (m *Manager) rebuildOrderLocked() {
	order := make([]*List, 0, len(m.lists))
	for _, l := range m.lists {
		order = append(order, l)
	}
	sort.Slice(order, func(i, j int) bool {
		ri, rj := priorityRank(order[i].Config.Priority), priorityRank(order[j].Config.Priority)
		if ri != rj {
			return ri < rj
		}
		return order[i].Config.ID < order[j].Config.ID
	})
	m.order = order
}

// Get returns the registered list with the given id, or nil.
func (m *Manager) Get(id string) *List {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lists[id]
}

// EnableList turns a list back on. Its cached rules are still in place,
// so re-enabling is cheap; a refresh is only scheduled if the list has
// never been fetched.
func (m *Manager) EnableList(id string) error {
	l := m.Get(id)
	if l == nil {
		return fmt.Errorf("unknown list %q", id)
	}
	l.enabled.Store(true)
	m.version.Add(1)
	if l.Set().Len() == 0 {
		go func() {
			if err := m.refreshOne(context.Background(), l); err != nil {
				logger.Warnf("[Subscription] Fetch of re-enabled list %s failed: %v", id, err)
			}
			m.saveMeta()
		}()
	}
	return nil
}

// DisableList stops a list from being queried but keeps its cached
// rules for cheap re-enable.
func (m *Manager) DisableList(id string) error {
	l := m.Get(id)
	if l == nil {
		return fmt.Errorf("unknown list %q", id)
	}
	l.enabled.Store(false)
	m.version.Add(1)
	return nil
}

// Match consults every enabled list in priority order and returns the
// first matching rule with its list's category.
func (m *Manager) Match(host, url string) (*rules.Rule, string, bool) {
	m.mu.RLock()
	order := m.order
	m.mu.RUnlock()

	for _, l := range order {
		if !l.Enabled() {
			continue
		}
		if r, ok := l.Set().Match(host, url); ok {
			return r, l.Config.Category, true
		}
	}
	return nil, "", false
}

// RefreshAll re-fetches every enabled list concurrently with
// all-settled semantics: one failing fetch neither aborts nor delays
// the others, and a failed list keeps its previous rule set.
// Concurrent callers are collapsed into a single refresh round.
func (m *Manager) RefreshAll(ctx context.Context) error {
	_, err, _ := m.flight.Do("refresh-all", func() (interface{}, error) {
		m.refreshAll(ctx)
		return nil, nil
	})
	return err
}

func (m *Manager) refreshAll(ctx context.Context) {
	m.mu.RLock()
	targets := make([]*List, 0, len(m.order))
	for _, l := range m.order {
		if l.Enabled() {
			targets = append(targets, l)
		}
	}
	m.mu.RUnlock()

	start := time.Now()
	sem := make(chan struct{}, maxConcurrentFetches)
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, l := range targets {
		wg.Add(1)
		go func(l *List) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := m.refreshOne(ctx, l); err != nil {
				failed.Add(1)
				logger.Warnf("[Subscription] Refresh of %s failed: %v", l.Config.ID, err)
			}
		}(l)
	}
	wg.Wait()

	if err := m.saveMeta(); err != nil {
		logger.Warnf("[Subscription] Failed to persist list metadata: %v", err)
	}
	logger.Infof("[Subscription] Refreshed %d lists (%d failed) in %.1fs",
		len(targets), failed.Load(), time.Since(start).Seconds())
}

// refreshOne fetches, parses and atomically installs one list's rules.
// No lock is held while the download is in flight. On any error the
// previous compiled set stays in place.
func (m *Manager) refreshOne(ctx context.Context, l *List) error {
	if l == nil {
		return fmt.Errorf("nil list")
	}
	url, cacheFile, etag, lastModified := l.fetchState()

	res, err := m.fetcher.Fetch(ctx, url, cacheFile, etag, lastModified)
	if err != nil {
		l.recordFailure(err)
		return err
	}
	if res.NotModified && l.Set().Len() > 0 {
		l.recordSuccess(res.ETag, res.LastModified)
		return nil
	}

	f, err := os.Open(res.CachePath)
	if err != nil {
		l.recordFailure(err)
		return err
	}
	set := rules.Compile(f, l.Config.ID)
	f.Close()

	l.set.Store(set)
	l.recordSuccess(res.ETag, res.LastModified)
	m.version.Add(1)
	logger.Debugf("[Subscription] %s: %d rules compiled", l.Config.ID, set.Len())
	return nil
}

// LoadFromCache compiles whatever rule bodies are already on disk so
// the engine has rules before the first network refresh finishes.
func (m *Manager) LoadFromCache() {
	m.mu.RLock()
	targets := append([]*List(nil), m.order...)
	m.mu.RUnlock()

	for _, l := range targets {
		_, cacheFile, _, _ := l.fetchState()
		path := filepath.Join(m.cfg.CacheDir, cacheFile)
		if _, err := os.Stat(path); err != nil {
			// 本地文件类型的源直接用其自身路径
			if l.Config.URL != "" && !isRemote(l.Config.URL) {
				path = l.Config.URL
			} else {
				continue
			}
		}
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		set := rules.Compile(f, l.Config.ID)
		f.Close()
		if set.Len() > 0 {
			l.set.Store(set)
			m.version.Add(1)
		}
	}
}

// Start runs one immediate refresh and then refreshes on the configured
// interval until ctx is cancelled. An in-flight refresh is never
// cancelled by engine state changes; it completes and installs.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		m.LoadFromCache()
		m.RefreshAll(ctx)
	}()

	if m.cfg.UpdateIntervalHours <= 0 {
		return
	}
	interval := time.Duration(m.cfg.UpdateIntervalHours) * time.Hour
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.RefreshAll(context.Background())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Statuses returns the read-only view of all lists, priority order.
func (m *Manager) Statuses() []ListStatus {
	m.mu.RLock()
	order := append([]*List(nil), m.order...)
	m.mu.RUnlock()

	statuses := make([]ListStatus, 0, len(order))
	for _, l := range order {
		statuses = append(statuses, l.snapshot())
	}
	return statuses
}

// Version returns the current rule-change generation.
func (m *Manager) Version() uint64 {
	return m.version.Load()
}

type listMeta struct {
	ID           string    `json:"id"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	CacheFile    string    `json:"cache_file"`
	LastUpdate   time.Time `json:"last_update"`
	FailCount    int       `json:"fail_count"`
	Status       string    `json:"status"`
}

func (m *Manager) loadMeta() error {
	data, err := os.ReadFile(m.metaFile)
	if err != nil {
		return err
	}
	var metas []listMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingMeta = make(map[string]listMeta, len(metas))
	for _, meta := range metas {
		m.pendingMeta[meta.ID] = meta
	}
	return nil
}

func (m *Manager) saveMeta() error {
	m.mu.RLock()
	metas := make([]listMeta, 0, len(m.lists))
	for _, l := range m.lists {
		l.mu.Lock()
		metas = append(metas, listMeta{
			ID:           l.Config.ID,
			ETag:         l.etag,
			LastModified: l.lastModified,
			CacheFile:    l.cacheFile,
			LastUpdate:   l.lastUpdate,
			FailCount:    l.failCount,
			Status:       l.status,
		})
		l.mu.Unlock()
	}
	m.mu.RUnlock()

	data, err := json.MarshalIndent(metas, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.metaFile, data, 0644)
}

// ensureCustomRulesFile creates the custom rules file if it doesn't exist
func (m *Manager) ensureCustomRulesFile(filePath string) error {
	if filePath == "" {
		return nil
	}
	if _, err := os.Stat(filePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	defaultContent := `# webshield 自定义规则文件
#
# 每行一条规则，支持以下格式：
#
#   ||example.com        拦截 example.com 及其全部子域名
#   |https://ads.        完整 URL 包含该片段即拦截
#   *.tracker.*          通配符模式
#   doubleclick.net      主机名相等或 URL 包含该字符串
#
# 以 ! 开头的行为注释，空行被忽略。
#
# 示例（取消注释以启用）：
# ||doubleclick.net
# ||googlesyndication.com
`
	return os.WriteFile(filePath, []byte(defaultContent), 0644)
}

func isRemote(url string) bool {
	return len(url) >= 4 && url[:4] == "http"
}
