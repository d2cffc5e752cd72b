package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

const recentBlockCapacity = 64

// Snapshot 对外暴露的只读统计快照
type Snapshot struct {
	AdsBlocked      int64   `json:"ads_blocked"`
	TrackersBlocked int64   `json:"trackers_blocked"`
	ScriptsBlocked  int64   `json:"scripts_blocked"`
	RequestsBlocked int64   `json:"requests_blocked"`
	TotalRequests   int64   `json:"total_requests"`
	BlockRate       float64 `json:"block_rate"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
}

// BlockEvent 最近一次拦截的记录
type BlockEvent struct {
	URL      string    `json:"url"`
	Rule     string    `json:"rule"`
	Category string    `json:"category"`
	Type     string    `json:"type"`
	Time     time.Time `json:"time"`
}

// Collector aggregates the engine's counters. Counters only ever grow
// until an explicit Clear; rule data, whitelist and level live elsewhere
// and are never touched from here.
type Collector struct {
	adsBlocked      atomic.Int64
	trackersBlocked atomic.Int64
	scriptsBlocked  atomic.Int64
	requestsBlocked atomic.Int64
	totalRequests   atomic.Int64

	mu        sync.Mutex
	recent    []BlockEvent // ring buffer of the latest blocks
	recentPos int

	startTime time.Time
}

// NewCollector 创建统计收集器
func NewCollector() *Collector {
	return &Collector{
		recent:    make([]BlockEvent, 0, recentBlockCapacity),
		startTime: time.Now(),
	}
}

// IncTotal counts one matcher invocation.
func (c *Collector) IncTotal() {
	c.totalRequests.Add(1)
}

// RecordBlock counts one blocked request with its attribution.
func (c *Collector) RecordBlock(url, rule, category, requestType string) {
	c.requestsBlocked.Add(1)
	switch category {
	case "ads", "annoyances":
		c.adsBlocked.Add(1)
	case "privacy":
		c.trackersBlocked.Add(1)
	}
	if requestType == "script" {
		c.scriptsBlocked.Add(1)
	}

	event := BlockEvent{
		URL:      url,
		Rule:     rule,
		Category: category,
		Type:     requestType,
		Time:     time.Now(),
	}
	c.mu.Lock()
	if len(c.recent) < recentBlockCapacity {
		c.recent = append(c.recent, event)
	} else {
		c.recent[c.recentPos] = event
		c.recentPos = (c.recentPos + 1) % recentBlockCapacity
	}
	c.mu.Unlock()
}

// GetStats returns a read-only snapshot of the counters.
func (c *Collector) GetStats() Snapshot {
	total := c.totalRequests.Load()
	blocked := c.requestsBlocked.Load()
	rate := 0.0
	if total > 0 {
		rate = float64(blocked) / float64(total)
	}
	return Snapshot{
		AdsBlocked:      c.adsBlocked.Load(),
		TrackersBlocked: c.trackersBlocked.Load(),
		ScriptsBlocked:  c.scriptsBlocked.Load(),
		RequestsBlocked: blocked,
		TotalRequests:   total,
		BlockRate:       rate,
		UptimeSeconds:   int64(time.Since(c.startTime).Seconds()),
	}
}

// RecentBlocks returns the latest blocked requests, newest last.
func (c *Collector) RecentBlocks() []BlockEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]BlockEvent, 0, len(c.recent))
	// 环形缓冲区从最旧位置开始拷贝
	for i := 0; i < len(c.recent); i++ {
		out = append(out, c.recent[(c.recentPos+i)%len(c.recent)])
	}
	return out
}

// Clear resets all counters to zero. Nothing else is touched.
func (c *Collector) Clear() {
	c.adsBlocked.Store(0)
	c.trackersBlocked.Store(0)
	c.scriptsBlocked.Store(0)
	c.requestsBlocked.Store(0)
	c.totalRequests.Store(0)

	c.mu.Lock()
	c.recent = c.recent[:0]
	c.recentPos = 0
	c.mu.Unlock()
}
