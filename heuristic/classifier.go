package heuristic

import (
	"fmt"
	"strings"
)

// Level is the escalating aggressiveness of the classifier.
// Levels are cumulative: everything Standard blocks is also blocked
// by Aggressive, and everything Aggressive blocks is also blocked by
// Strict.
type Level int

const (
	Standard Level = iota
	Aggressive
	Strict
)

// ParseLevel converts the persisted string form to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "standard":
		return Standard, nil
	case "aggressive":
		return Aggressive, nil
	case "strict":
		return Strict, nil
	default:
		return Standard, fmt.Errorf("unknown blocking level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case Aggressive:
		return "aggressive"
	case Strict:
		return "strict"
	default:
		return "standard"
	}
}

// Verdict is the classifier's decision for one request.
type Verdict struct {
	Blocked  bool
	Category string // ads | privacy | security
	Reason   string // table or keyword group that fired
}

// Classify decides whether a request should be blocked independently of
// any subscription data. Pure function: same inputs, same verdict.
// Cost is proportional to the number of keyword groups, never to the
// size of the page or the rule lists.
func Classify(host, path, requestType string, level Level) Verdict {
	host = strings.ToLower(host)
	path = strings.ToLower(path)

	// standard：仅查已知广告/统计/社交域名表
	if inTable(host, adDomains) {
		return Verdict{Blocked: true, Category: "ads", Reason: "ad-domain"}
	}
	if inTable(host, analyticsDomains) {
		return Verdict{Blocked: true, Category: "privacy", Reason: "analytics-domain"}
	}
	if inTable(host, socialDomains) {
		return Verdict{Blocked: true, Category: "privacy", Reason: "social-domain"}
	}
	if level < Aggressive {
		return Verdict{}
	}

	// aggressive：附加域名表与关键词启发式
	if inTable(host, recommendationDomains) {
		return Verdict{Blocked: true, Category: "ads", Reason: "recommendation-domain"}
	}
	if inTable(host, perfMonitoringDomains) {
		return Verdict{Blocked: true, Category: "privacy", Reason: "monitoring-domain"}
	}
	if inTable(host, behaviorDomains) {
		return Verdict{Blocked: true, Category: "privacy", Reason: "behavior-domain"}
	}
	for _, kw := range trackingKeywords {
		if strings.Contains(host, kw) || strings.Contains(path, kw) {
			return Verdict{Blocked: true, Category: "privacy", Reason: "keyword:" + kw}
		}
	}
	for _, seg := range trackingPathSegments {
		if strings.Contains(path, seg) {
			return Verdict{Blocked: true, Category: "ads", Reason: "path:" + seg}
		}
	}
	if level < Strict {
		return Verdict{}
	}

	// strict：附加营销/挖矿/恶意域名表与组合检查
	if inTable(host, marketingDomains) {
		return Verdict{Blocked: true, Category: "privacy", Reason: "marketing-domain"}
	}
	if inTable(host, miningDomains) {
		return Verdict{Blocked: true, Category: "security", Reason: "mining-domain"}
	}
	if inTable(host, malwareDomains) {
		return Verdict{Blocked: true, Category: "security", Reason: "malware-domain"}
	}
	// 资源类关键词与广告/跟踪关键词同时出现在主机名中才命中，
	// 避免把普通 CDN 整个拦掉。
	if hasAny(host, assetTokens) && hasAny(host, trackingKeywords) {
		return Verdict{Blocked: true, Category: "ads", Reason: "asset-keyword-pair"}
	}

	return Verdict{}
}

// inTable reports whether host or any parent domain of host is in the table.
func inTable(host string, table map[string]struct{}) bool {
	for h := host; h != ""; {
		if _, ok := table[h]; ok {
			return true
		}
		idx := strings.IndexByte(h, '.')
		if idx < 0 {
			break
		}
		h = h[idx+1:]
	}
	return false
}

func hasAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
