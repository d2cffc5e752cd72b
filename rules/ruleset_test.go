package rules

import (
	"fmt"
	"strings"
	"testing"
)

func compileLines(t *testing.T, lines ...string) *Set {
	t.Helper()
	return Compile(strings.NewReader(strings.Join(lines, "\n")), "test")
}

func TestSetDomainAnchorSemantics(t *testing.T) {
	set := compileLines(t, "||example.com^")

	tests := []struct {
		host        string
		url         string
		shouldMatch bool
	}{
		{"example.com", "https://example.com/x", true},
		{"sub.example.com", "https://sub.example.com/x", true},
		{"a.b.example.com", "https://a.b.example.com/", true},
		{"notexample.com", "https://notexample.com/x", false},
		{"examplefoo.com", "https://examplefoo.com/x", false},
		{"example.com.evil.org", "https://example.com.evil.org/", false},
	}
	for _, test := range tests {
		_, matched := set.Match(test.host, test.url)
		if matched != test.shouldMatch {
			t.Errorf("Host %q: expected match=%v, got %v", test.host, test.shouldMatch, matched)
		}
	}
}

func TestSetWildcardMatch(t *testing.T) {
	set := compileLines(t, "*.tracker.*")

	if _, matched := set.Match("ads.tracker.io", "https://ads.tracker.io/pixel"); !matched {
		t.Error("Expected '*.tracker.*' to block 'https://ads.tracker.io/pixel'")
	}
	if _, matched := set.Match("example.com", "https://example.com/page"); matched {
		t.Error("Did not expect '*.tracker.*' to block 'https://example.com/page'")
	}
}

func TestSetURLAnchorContains(t *testing.T) {
	// URL 锚定按“包含片段”的宽松语义匹配
	set := compileLines(t, "|https://cdn.ads")

	if _, matched := set.Match("cdn.ads.example", "https://cdn.ads.example/lib.js"); !matched {
		t.Error("Expected URL-anchor fragment to match by containment")
	}
	if _, matched := set.Match("example.com", "https://example.com/about"); matched {
		t.Error("Did not expect URL-anchor rule to match unrelated URL")
	}
}

func TestSetPlainRule(t *testing.T) {
	set := compileLines(t, "doubleclick.net")

	// 主机名相等
	if _, matched := set.Match("doubleclick.net", "https://doubleclick.net/"); !matched {
		t.Error("Expected plain rule to match equal hostname")
	}
	// URL 子串
	if _, matched := set.Match("example.com", "https://example.com/?redir=doubleclick.net"); !matched {
		t.Error("Expected plain rule to match URL substring")
	}
	if _, matched := set.Match("example.com", "https://example.com/"); matched {
		t.Error("Did not expect plain rule to match unrelated URL")
	}
}

func TestSetMatchAttribution(t *testing.T) {
	set := compileLines(t, "||ads.example.com^")

	rule, matched := set.Match("ads.example.com", "https://ads.example.com/banner")
	if !matched {
		t.Fatal("Expected a match")
	}
	if rule.Raw != "||ads.example.com^" {
		t.Errorf("Expected raw rule attribution, got %q", rule.Raw)
	}
	if rule.ListID != "test" {
		t.Errorf("Expected list id 'test', got %q", rule.ListID)
	}
}

func TestSetEmptyAndNil(t *testing.T) {
	var nilSet *Set
	if _, matched := nilSet.Match("example.com", "https://example.com/"); matched {
		t.Error("nil set must never match")
	}
	if nilSet.Len() != 0 {
		t.Error("nil set length must be 0")
	}

	empty := compileLines(t, "! only a comment")
	if _, matched := empty.Match("example.com", "https://example.com/"); matched {
		t.Error("empty set must never match")
	}
}

func TestSetCaseInsensitive(t *testing.T) {
	set := compileLines(t, "||Example.COM^")

	if _, matched := set.Match("sub.example.com", "https://Sub.Example.COM/x"); !matched {
		t.Error("Expected case-insensitive domain match")
	}

	// URL 锚定规则的片段与 URL 大小写各异时也必须命中
	anchored := compileLines(t, "|https://Track.Example/px")
	if _, matched := anchored.Match("track.example", "https://Track.Example/px.gif"); !matched {
		t.Error("Expected mixed-case URL-anchor rule to match")
	}
	if _, matched := anchored.Match("track.example", "https://track.example/PX.GIF"); !matched {
		t.Error("Expected URL-anchor match regardless of URL casing")
	}
}

func BenchmarkSetMatch(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&sb, "||domain%d.example.com^\n", i)
	}
	sb.WriteString("*.tracker.*\n")
	set := Compile(strings.NewReader(sb.String()), "bench")

	urls := []struct{ host, url string }{
		{"sub.domain42.example.com", "https://sub.domain42.example.com/x"},
		{"clean.example.org", "https://clean.example.org/page"},
		{"ads.tracker.io", "https://ads.tracker.io/pixel"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u := urls[i%len(urls)]
		set.Match(u.host, u.url)
	}
}
