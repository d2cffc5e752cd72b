package rules

import (
	"io"
	"strings"

	radix "github.com/hashicorp/go-immutable-radix"

	util "webshield/internal"
)

// Set is the compiled, immutable form of one subscription list's rules.
// A Set is built complete and then published by pointer swap, so a
// concurrent reader always sees a fully-formed old or new set.
//
// 域名锚定规则存放在基数树中，键为颠倒标签顺序并追加 "." 的域名
// （"example.com" -> "com.example."），这样 LongestPrefix 查找即为
// 按标签边界的后缀匹配。
type Set struct {
	listID    string
	exact     map[string]*Rule // plain rules, keyed by pattern (hostname fast path)
	domains   *radix.Tree      // reversed-label domain anchors
	wildcards []*Rule
	substr    []*Rule // URL-anchor and plain rules, matched by substring
	count     int
}

// NewSet compiles a parsed rule slice into a Set.
func NewSet(listID string, parsed []*Rule) *Set {
	s := &Set{
		listID:  listID,
		exact:   make(map[string]*Rule),
		domains: radix.New(),
	}
	for _, r := range parsed {
		s.add(r)
	}
	return s
}

// Compile reads and compiles a whole subscription body in one step.
func Compile(r io.Reader, listID string) *Set {
	return NewSet(listID, ParseText(r, listID))
}

func (s *Set) add(r *Rule) {
	switch r.Kind {
	case KindDomainAnchor:
		key := util.ReverseLabels(r.Pattern) + "."
		newTree, _, _ := s.domains.Insert([]byte(key), r)
		s.domains = newTree
	case KindWildcard:
		s.wildcards = append(s.wildcards, r)
	case KindURLAnchor:
		s.substr = append(s.substr, r)
	case KindPlain:
		s.exact[r.Pattern] = r
		s.substr = append(s.substr, r)
	default:
		return
	}
	s.count++
}

// Match reports the first rule in the set matching the given hostname
// and full URL. host must be normalized, url is matched case-insensitively.
func (s *Set) Match(host, url string) (*Rule, bool) {
	if s == nil || s.count == 0 {
		return nil, false
	}
	url = strings.ToLower(url)

	// 1. 主机名精确命中
	if r, ok := s.exact[host]; ok {
		return r, true
	}

	// 2. 域名锚定：颠倒标签后做前缀查找
	if host != "" {
		key := util.ReverseLabels(host) + "."
		if _, v, found := s.domains.Root().LongestPrefix([]byte(key)); found {
			return v.(*Rule), true
		}
	}

	// 3. 通配符规则
	for _, r := range s.wildcards {
		if r.re.MatchString(url) || (host != "" && r.re.MatchString(host)) {
			return r, true
		}
	}

	// 4. 子串规则（URL 锚定与裸 token）
	for _, r := range s.substr {
		if strings.Contains(url, r.Pattern) {
			return r, true
		}
	}

	return nil, false
}

// Len returns the number of compiled rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

// ListID returns the id of the subscription list this set was built from.
func (s *Set) ListID() string {
	if s == nil {
		return ""
	}
	return s.listID
}
