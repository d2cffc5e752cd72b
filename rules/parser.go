package rules

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	util "webshield/internal"
)

// ParseLine parses a single line of EasyList-family rule text.
// Returns nil for blank lines, comments (!), section headers ([...]),
// exception rules (@@), cosmetic rules (##) and anything else that does
// not classify as a supported rule. Invalid wildcard patterns are
// discarded here and never surface as an error.
func ParseLine(line, listID string) *Rule {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "!") || strings.HasPrefix(line, "[") {
		return nil
	}
	// 例外规则和元素隐藏规则不在支持范围内，直接跳过
	if strings.HasPrefix(line, "@@") || strings.Contains(line, "##") || strings.Contains(line, "#?#") {
		return nil
	}

	rule := &Rule{Raw: line, ListID: listID}
	pattern := line

	// 去掉尾部的 $modifiers 段（$third-party 等选项不参与匹配）
	if idx := strings.LastIndex(pattern, "$"); idx > 0 {
		pattern = pattern[:idx]
	}

	switch {
	case strings.HasPrefix(pattern, "||"):
		// 域名锚定：匹配该域名及全部子域名
		domain := strings.TrimPrefix(pattern, "||")
		// 分隔符 ^ 或路径之后的部分不参与域名匹配
		if idx := strings.IndexAny(domain, "^/"); idx != -1 {
			domain = domain[:idx]
		}
		domain = strings.ToLower(strings.TrimSuffix(domain, "."))
		if domain == "" {
			return nil
		}
		if strings.Contains(domain, "*") {
			return compileWildcard(rule, domain)
		}
		if !util.IsValidDomain(domain) {
			return nil
		}
		rule.Kind = KindDomainAnchor
		rule.Pattern = domain
		return rule

	case strings.HasPrefix(pattern, "|"):
		// URL 锚定：完整 URL 包含该片段即命中
		fragment := strings.Trim(pattern, "|")
		if fragment == "" {
			return nil
		}
		if strings.Contains(fragment, "*") {
			return compileWildcard(rule, fragment)
		}
		rule.Kind = KindURLAnchor
		// Match 按小写 URL 做包含比较，片段也必须小写
		rule.Pattern = strings.ToLower(fragment)
		return rule

	case strings.Contains(pattern, "*"):
		return compileWildcard(rule, pattern)

	default:
		// 裸 token：不含空白和 # 才算有效规则
		if pattern == "" || strings.ContainsAny(pattern, " \t#") {
			return nil
		}
		rule.Kind = KindPlain
		rule.Pattern = strings.ToLower(strings.TrimSuffix(pattern, "^"))
		return rule
	}
}

// compileWildcard escapes regex metacharacters, replaces * with .* and
// compiles the result. A pattern that fails to compile is dropped.
func compileWildcard(rule *Rule, pattern string) *Rule {
	escaped := regexp.QuoteMeta(strings.ToLower(pattern))
	// QuoteMeta 将 * 转义为 \*，这里再换回 .*
	regexPattern := strings.ReplaceAll(escaped, `\*`, `.*`)

	re, err := regexp.Compile(regexPattern)
	if err != nil {
		return nil
	}
	rule.Kind = KindWildcard
	rule.Pattern = pattern
	rule.re = re
	return rule
}

// ParseText parses a whole subscription body line by line, deduplicating
// rules by their raw text. Parse problems in individual lines never fail
// the whole body.
func ParseText(r io.Reader, listID string) []*Rule {
	var parsed []*Rule
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		rule := ParseLine(scanner.Text(), listID)
		if rule == nil {
			continue
		}
		if _, dup := seen[rule.Raw]; dup {
			continue
		}
		seen[rule.Raw] = struct{}{}
		parsed = append(parsed, rule)
	}
	return parsed
}
