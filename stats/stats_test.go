package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.IncTotal()
	c.IncTotal()
	c.IncTotal()
	c.RecordBlock("https://ads.example/x.js", "||ads.example^", "ads", "script")
	c.RecordBlock("https://tracker.example/p.gif", "||tracker.example^", "privacy", "image")

	s := c.GetStats()
	assert.Equal(t, int64(3), s.TotalRequests)
	assert.Equal(t, int64(2), s.RequestsBlocked)
	assert.Equal(t, int64(1), s.AdsBlocked)
	assert.Equal(t, int64(1), s.TrackersBlocked)
	assert.Equal(t, int64(1), s.ScriptsBlocked)
	assert.InDelta(t, 2.0/3.0, s.BlockRate, 1e-9)
}

func TestCollectorClear(t *testing.T) {
	c := NewCollector()
	c.IncTotal()
	c.RecordBlock("https://ads.example/", "rule", "ads", "fetch")

	c.Clear()

	s := c.GetStats()
	assert.Zero(t, s.TotalRequests)
	assert.Zero(t, s.RequestsBlocked)
	assert.Zero(t, s.AdsBlocked)
	assert.Zero(t, s.TrackersBlocked)
	assert.Zero(t, s.ScriptsBlocked)
	assert.Empty(t, c.RecentBlocks())
}

func TestRecentBlocksRingBuffer(t *testing.T) {
	c := NewCollector()

	for i := 0; i < recentBlockCapacity+10; i++ {
		c.RecordBlock("https://ads.example/", "rule", "ads", "fetch")
	}

	recent := c.RecentBlocks()
	assert.Len(t, recent, recentBlockCapacity)
	// 最新的记录在末尾
	assert.False(t, recent[0].Time.After(recent[len(recent)-1].Time))
}
