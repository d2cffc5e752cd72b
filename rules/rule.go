package rules

import "regexp"

// Kind distinguishes the matching strategy required for a rule.
type Kind int

const (
	KindUnknown     Kind = iota
	KindDomainAnchor     // ||example.com : 域名及其所有子域名
	KindURLAnchor        // |fragment : 完整 URL 包含片段
	KindWildcard         // 含 * 的模式，编译为正则
	KindPlain            // 裸 token：主机名相等或 URL 子串
)

// Rule represents one parsed filter rule. Immutable once parsed.
type Rule struct {
	Kind    Kind
	Pattern string // extracted pattern (e.g. "example.com" for "||example.com^")
	Raw     string // original rule text
	ListID  string // id of the subscription list this rule came from

	re *regexp.Regexp // compiled pattern, wildcard rules only
}

func (k Kind) String() string {
	switch k {
	case KindDomainAnchor:
		return "domain"
	case KindURLAnchor:
		return "url-anchor"
	case KindWildcard:
		return "wildcard"
	case KindPlain:
		return "plain"
	default:
		return "unknown"
	}
}
