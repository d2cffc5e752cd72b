package heuristic

import "testing"

func TestClassifyStandardDomainTables(t *testing.T) {
	tests := []struct {
		host    string
		blocked bool
	}{
		{"doubleclick.net", true},
		{"ads.doubleclick.net", true},
		{"google-analytics.com", true},
		{"connect.facebook.net", true},
		{"example.com", false},
		{"notdoubleclick.net.example.com", false},
	}
	for _, test := range tests {
		v := Classify(test.host, "/", "script", Standard)
		if v.Blocked != test.blocked {
			t.Errorf("Host %q at standard: expected blocked=%v, got %v (%s)", test.host, test.blocked, v.Blocked, v.Reason)
		}
	}
}

func TestClassifyAggressiveKeywords(t *testing.T) {
	// standard 不命中关键词
	if v := Classify("telemetry.example.com", "/v1/data", "xhr", Standard); v.Blocked {
		t.Errorf("Expected standard to ignore keywords, blocked by %s", v.Reason)
	}

	cases := []struct {
		host string
		path string
	}{
		{"telemetry.example.com", "/v1/data"},
		{"example.com", "/ads/banner.js"},
		{"pixel.shop.example", "/p.gif"},
		{"example.com", "/beacon/events"},
		{"stats.example.com", "/collect"},
	}
	for _, c := range cases {
		v := Classify(c.host, c.path, "script", Aggressive)
		if !v.Blocked {
			t.Errorf("Expected aggressive to block host=%q path=%q", c.host, c.path)
		}
	}

	// 无关键词的正常请求不受影响
	if v := Classify("www.example.com", "/index.html", "fetch", Aggressive); v.Blocked {
		t.Errorf("Expected clean URL to pass at aggressive, blocked by %s", v.Reason)
	}
}

func TestClassifyStrictCompoundCheck(t *testing.T) {
	// cdn + ads 关键词同时出现在主机名里，仅 strict 拦截
	host := "cdn-ads.example.com"
	if v := Classify(host, "/lib.js", "script", Aggressive); !v.Blocked {
		// 该主机名包含 "ads" 关键词，aggressive 已经会命中
		t.Errorf("Expected aggressive keyword check to block %q", host)
	}

	// 挖矿域名仅 strict 拦截
	if v := Classify("coinhive.com", "/lib/miner.js", "script", Aggressive); v.Blocked {
		t.Errorf("Expected aggressive to pass mining domain, blocked by %s", v.Reason)
	}
	v := Classify("coinhive.com", "/lib/miner.js", "script", Strict)
	if !v.Blocked {
		t.Error("Expected strict to block mining domain")
	}
	if v.Category != "security" {
		t.Errorf("Expected category 'security', got %q", v.Category)
	}
}

// TestClassifyMonotonicAcrossLevels 验证拦截集合随级别单调递增
func TestClassifyMonotonicAcrossLevels(t *testing.T) {
	samples := []struct {
		host string
		path string
	}{
		{"doubleclick.net", "/"},
		{"ads.doubleclick.net", "/track"},
		{"telemetry.example.com", "/v1"},
		{"example.com", "/ads/x.js"},
		{"coinhive.com", "/miner.js"},
		{"hubspot.com", "/forms"},
		{"www.example.com", "/index.html"},
		{"cdn.example.com", "/app.js"},
		{"hotjar.com", "/hj.js"},
	}

	for _, s := range samples {
		std := Classify(s.host, s.path, "script", Standard).Blocked
		agg := Classify(s.host, s.path, "script", Aggressive).Blocked
		strict := Classify(s.host, s.path, "script", Strict).Blocked

		if std && !agg {
			t.Errorf("Monotonicity violated for %s%s: standard blocks but aggressive does not", s.host, s.path)
		}
		if agg && !strict {
			t.Errorf("Monotonicity violated for %s%s: aggressive blocks but strict does not", s.host, s.path)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"standard", Standard, false},
		{"Aggressive", Aggressive, false},
		{"STRICT", Strict, false},
		{"paranoid", Standard, true},
		{"", Standard, true},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseLevel(%q): unexpected error state: %v", test.in, err)
		}
		if got != test.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", test.in, test.want, got)
		}
	}
}

func BenchmarkClassifyStrict(b *testing.B) {
	hosts := []string{
		"www.example.com",
		"cdn.shop.example.org",
		"telemetry.vendor.io",
		"doubleclick.net",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Classify(hosts[i%len(hosts)], "/assets/app.js", "script", Strict)
	}
}
