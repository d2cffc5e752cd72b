package util

import "strings"

// NormalizeHost 规范化主机名（小写，去掉尾部的点）
func NormalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}

// IsSubdomainOf reports whether host equals domain or is a subdomain of it.
// Both arguments are expected to be normalized already.
func IsSubdomainOf(host, domain string) bool {
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

// ReverseLabels 颠倒域名标签顺序 ("ads.example.com" -> "com.example.ads")，
// 用于基数树的前缀匹配。
func ReverseLabels(domain string) string {
	parts := strings.Split(domain, ".")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// IsValidDomain 验证域名格式
func IsValidDomain(domain string) bool {
	domain = strings.TrimSuffix(domain, ".")
	if len(domain) == 0 || len(domain) > 255 {
		return false
	}

	for _, label := range strings.Split(domain, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, ch := range label {
			if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
				(ch >= '0' && ch <= '9') || ch == '-' || ch == '_') {
				return false
			}
		}
	}
	return true
}
