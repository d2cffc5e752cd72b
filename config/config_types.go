package config

// Config 主配置结构
type Config struct {
	Engine      EngineConfig      `yaml:"engine" json:"engine"`
	FilterLists FilterListsConfig `yaml:"filterlists" json:"filterlists"`
	WebUI       WebUIConfig       `yaml:"webui" json:"webui"`
	System      SystemConfig      `yaml:"system" json:"system"`
}

// Clone 返回配置的深拷贝。持续变更的原配置与拷贝互不影响，
// 序列化拷贝时无须再持有调用方的锁。
func (c *Config) Clone() *Config {
	out := *c
	out.Engine.WhitelistedDomains = append([]string(nil), c.Engine.WhitelistedDomains...)
	out.FilterLists.WhitelistedPatterns = append([]string(nil), c.FilterLists.WhitelistedPatterns...)
	if c.FilterLists.Overrides != nil {
		out.FilterLists.Overrides = make(map[string]bool, len(c.FilterLists.Overrides))
		for id, enabled := range c.FilterLists.Overrides {
			out.FilterLists.Overrides[id] = enabled
		}
	}
	return &out
}

// EngineConfig 拦截引擎配置
type EngineConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// 拦截级别：standard | aggressive | strict
	BlockingLevel string `yaml:"blocking_level,omitempty" json:"blocking_level"`

	// 白名单域名/子串，匹配则永远放行
	WhitelistedDomains []string `yaml:"whitelisted_domains,omitempty" json:"whitelisted_domains"`
}

// FilterListsConfig 订阅规则列表配置
type FilterListsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// 仅对订阅规则生效的白名单模式（不影响启发式拦截）
	WhitelistedPatterns []string `yaml:"whitelisted_patterns,omitempty" json:"whitelisted_patterns"`

	// 规则缓存目录
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir"`

	// 自定义规则文件路径
	CustomRulesFile string `yaml:"custom_rules_file,omitempty" json:"custom_rules_file"`

	// 自动更新间隔（小时），0 表示禁用定时更新
	UpdateIntervalHours int `yaml:"update_interval_hours,omitempty" json:"update_interval_hours"`

	// 单个订阅下载超时（秒）
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds,omitempty" json:"fetch_timeout_seconds"`

	// 按列表 id 覆盖默认启用状态
	Overrides map[string]bool `yaml:"overrides,omitempty" json:"overrides"`
}

// WebUIConfig Web 管理接口配置
type WebUIConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	ListenPort int  `yaml:"listen_port,omitempty" json:"listen_port"`
}

// SystemConfig 系统配置
type SystemConfig struct {
	LogLevel string `yaml:"log_level,omitempty" json:"log_level"`
}
