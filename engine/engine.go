package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"webshield/config"
	"webshield/heuristic"
	util "webshield/internal"
	"webshield/logger"
	"webshield/stats"
	"webshield/subscription"
)

const decisionCacheSize = 4096

// ErrBlocked is the sentinel wrapped by errors surfaced to hosts when a
// request is denied, so callers can distinguish policy denials from
// infrastructure failures.
var ErrBlocked = errors.New("blocked by content filter")

// Decision is the allow/block verdict for one request.
type Decision struct {
	Blocked  bool   `json:"blocked"`
	Rule     string `json:"rule,omitempty"`     // matched rule text or heuristic reason
	ListID   string `json:"list_id,omitempty"`  // subscription list the rule came from
	Category string `json:"category,omitempty"` // ads | privacy | annoyances | security | custom
	Source   string `json:"source,omitempty"`   // whitelist | rules | heuristic
}

// Engine combines whitelist, subscription rules and the heuristic
// classifier into one decision function, and carries the public API
// consumed by the settings surface. One instance is constructed by the
// application root and passed to whichever layer installs hooks; there
// is no ambient global state.
type Engine struct {
	lists     *subscription.Manager
	collector *stats.Collector

	enabled      atomic.Bool
	listsEnabled atomic.Bool
	level        atomic.Int32

	mu            sync.RWMutex
	whitelist     map[string]struct{}
	listWhitelist []string // patterns exempting URLs from subscription rules only

	cache *lru.Cache
	gen   atomic.Uint64 // bumped on every local mutation affecting decisions

	cfg     *config.Config
	persist func(*config.Config) error
}

type cachedDecision struct {
	gen      uint64
	listsVer uint64
	d        Decision
}

// New builds an engine from persisted settings.
func New(cfg *config.Config, lists *subscription.Manager, collector *stats.Collector) (*Engine, error) {
	level, err := heuristic.ParseLevel(cfg.Engine.BlockingLevel)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New(decisionCacheSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		lists:     lists,
		collector: collector,
		whitelist: make(map[string]struct{}),
		cache:     cache,
		cfg:       cfg,
	}
	e.enabled.Store(cfg.Engine.Enabled)
	e.listsEnabled.Store(cfg.FilterLists.Enabled)
	e.level.Store(int32(level))
	for _, d := range cfg.Engine.WhitelistedDomains {
		e.whitelist[util.NormalizeHost(d)] = struct{}{}
	}
	e.listWhitelist = append(e.listWhitelist, cfg.FilterLists.WhitelistedPatterns...)
	return e, nil
}

// SetPersistFunc installs the callback used to write settings back to
// their store after every mutation.
func (e *Engine) SetPersistFunc(f func(*config.Config) error) {
	e.mu.Lock()
	e.persist = f
	e.mu.Unlock()
}

// Decide evaluates one request. Precedence: user whitelist beats
// subscription rules beats heuristics. Malformed input never blocks.
// Runs synchronously and performs no I/O.
func (e *Engine) Decide(rawURL, requestType string) Decision {
	// 引擎停用时直接放行，钩子保持安装以便低成本重新启用
	if !e.enabled.Load() {
		return Decision{}
	}
	e.collector.IncTotal()

	gen, listsVer := e.gen.Load(), e.lists.Version()
	key := requestType + "|" + rawURL
	if v, ok := e.cache.Get(key); ok {
		if cd := v.(cachedDecision); cd.gen == gen && cd.listsVer == listsVer {
			e.record(cd.d, rawURL, requestType)
			return cd.d
		}
	}

	d := e.evaluate(rawURL, requestType)
	e.cache.Add(key, cachedDecision{gen: gen, listsVer: listsVer, d: d})
	e.record(d, rawURL, requestType)
	return d
}

func (e *Engine) evaluate(rawURL, requestType string) Decision {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		// 解析失败的输入永远放行
		return Decision{}
	}
	host := util.NormalizeHost(u.Hostname())
	lowerURL := strings.ToLower(rawURL)

	// 1. 用户白名单永远优先
	if e.isWhitelisted(host, lowerURL) {
		return Decision{Source: "whitelist"}
	}

	// 2. 订阅规则
	if e.listsEnabled.Load() && !e.isListWhitelisted(host, lowerURL) {
		if r, category, ok := e.lists.Match(host, lowerURL); ok {
			return Decision{
				Blocked:  true,
				Rule:     r.Raw,
				ListID:   r.ListID,
				Category: category,
				Source:   "rules",
			}
		}
	}

	// 3. 启发式分类器
	if v := heuristic.Classify(host, u.Path, requestType, e.Level()); v.Blocked {
		return Decision{
			Blocked:  true,
			Rule:     v.Reason,
			Category: v.Category,
			Source:   "heuristic",
		}
	}

	return Decision{}
}

func (e *Engine) record(d Decision, rawURL, requestType string) {
	if d.Blocked {
		e.collector.RecordBlock(rawURL, d.Rule, d.Category, requestType)
	}
}

func (e *Engine) isWhitelisted(host, lowerURL string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for entry := range e.whitelist {
		if util.IsSubdomainOf(host, entry) || strings.Contains(lowerURL, entry) {
			return true
		}
	}
	return false
}

func (e *Engine) isListWhitelisted(host, lowerURL string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, entry := range e.listWhitelist {
		if util.IsSubdomainOf(host, entry) || strings.Contains(lowerURL, entry) {
			return true
		}
	}
	return false
}

// Enable turns the engine on. Installed hooks start consulting the
// matcher again.
func (e *Engine) Enable() {
	e.enabled.Store(true)
	e.persistSettings()
}

// Disable bypasses the matcher without uninstalling hooks: all traffic
// is allowed until Enable is called again.
func (e *Engine) Disable() {
	e.enabled.Store(false)
	e.persistSettings()
}

// Enabled reports the engine toggle state.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// Level returns the configured heuristic blocking level.
func (e *Engine) Level() heuristic.Level {
	return heuristic.Level(e.level.Load())
}

// SetBlockingLevel sets the heuristic level from its string form.
// Takes effect for the next Decide call; in-flight queries are
// unaffected.
func (e *Engine) SetBlockingLevel(levelStr string) error {
	level, err := heuristic.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	e.level.Store(int32(level))
	e.gen.Add(1)
	e.persistSettings()
	return nil
}

// AddWhitelist adds a hostname/substring entry. Whitelisted URLs are
// allowed regardless of any rule or heuristic match.
func (e *Engine) AddWhitelist(pattern string) error {
	pattern = util.NormalizeHost(pattern)
	if pattern == "" {
		return fmt.Errorf("empty whitelist pattern")
	}
	e.mu.Lock()
	e.whitelist[pattern] = struct{}{}
	e.mu.Unlock()
	e.gen.Add(1)
	e.persistSettings()
	return nil
}

// RemoveWhitelist removes a whitelist entry.
func (e *Engine) RemoveWhitelist(pattern string) error {
	pattern = util.NormalizeHost(pattern)
	e.mu.Lock()
	_, ok := e.whitelist[pattern]
	delete(e.whitelist, pattern)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("pattern %q not in whitelist", pattern)
	}
	e.gen.Add(1)
	e.persistSettings()
	return nil
}

// Whitelist returns the current whitelist entries, sorted.
func (e *Engine) Whitelist() []string {
	e.mu.RLock()
	out := make([]string, 0, len(e.whitelist))
	for entry := range e.whitelist {
		out = append(out, entry)
	}
	e.mu.RUnlock()
	sort.Strings(out)
	return out
}

// SetRulesEnabled toggles the subscription-rule stage of the matcher
// (the heuristic stage is unaffected).
func (e *Engine) SetRulesEnabled(enabled bool) {
	e.listsEnabled.Store(enabled)
	e.gen.Add(1)
	e.persistSettings()
}

// RulesEnabled reports whether the subscription-rule stage is active.
func (e *Engine) RulesEnabled() bool {
	return e.listsEnabled.Load()
}

// GetStats returns a read-only snapshot of the counters.
func (e *Engine) GetStats() stats.Snapshot {
	return e.collector.GetStats()
}

// ClearStats resets counters only; rules, whitelist and level are
// untouched.
func (e *Engine) ClearStats() {
	e.collector.Clear()
}

// RecentBlocks exposes the latest blocked requests for the API.
func (e *Engine) RecentBlocks() []stats.BlockEvent {
	return e.collector.RecentBlocks()
}

// FilterLists returns the status of every registered subscription.
func (e *Engine) FilterLists() []subscription.ListStatus {
	return e.lists.Statuses()
}

// EnableFilterList enables one subscription list.
func (e *Engine) EnableFilterList(id string) error {
	if err := e.lists.EnableList(id); err != nil {
		return err
	}
	e.setListOverride(id, true)
	return nil
}

// DisableFilterList disables one subscription list, keeping its cached
// rules.
func (e *Engine) DisableFilterList(id string) error {
	if err := e.lists.DisableList(id); err != nil {
		return err
	}
	e.setListOverride(id, false)
	return nil
}

func (e *Engine) setListOverride(id string, enabled bool) {
	e.mu.Lock()
	if e.cfg.FilterLists.Overrides == nil {
		e.cfg.FilterLists.Overrides = make(map[string]bool)
	}
	e.cfg.FilterLists.Overrides[id] = enabled
	e.mu.Unlock()
	e.persistSettings()
}

// UpdateAllFilterLists refreshes every enabled subscription and waits
// for the round to settle. One unreachable source never fails the call.
func (e *Engine) UpdateAllFilterLists(ctx context.Context) error {
	return e.lists.RefreshAll(ctx)
}

// persistSettings mirrors the current state into the config struct and
// writes it back through the persist callback.
func (e *Engine) persistSettings() {
	e.mu.Lock()
	e.cfg.Engine.Enabled = e.enabled.Load()
	e.cfg.Engine.BlockingLevel = e.Level().String()
	whitelist := make([]string, 0, len(e.whitelist))
	for entry := range e.whitelist {
		whitelist = append(whitelist, entry)
	}
	sort.Strings(whitelist)
	e.cfg.Engine.WhitelistedDomains = whitelist
	e.cfg.FilterLists.Enabled = e.listsEnabled.Load()
	persist := e.persist
	// 其余写路径都在 e.mu 下改同一个 cfg，序列化必须用锁内快照
	cfg := e.cfg.Clone()
	e.mu.Unlock()

	if persist == nil {
		return
	}
	if err := persist(cfg); err != nil {
		logger.Errorf("[Engine] Failed to persist settings: %v", err)
	}
}
