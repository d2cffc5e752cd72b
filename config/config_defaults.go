package config

import "gopkg.in/yaml.v3"

// setDefaultValues 设置配置文件中缺失字段的默认值
func setDefaultValues(cfg *Config, rawData []byte) {
	// bool 字段无法区分“省略”和“显式 false”，需要探测原始 YAML 文档。
	// 用户显式写了 enabled: false 则保持 false，否则默认启用。

	// Engine 配置默认值
	if _, set := explicitBool(rawData, "engine", "enabled"); !set {
		cfg.Engine.Enabled = true
	}
	if cfg.Engine.BlockingLevel == "" {
		cfg.Engine.BlockingLevel = "standard"
	}

	// FilterLists 配置默认值
	if _, set := explicitBool(rawData, "filterlists", "enabled"); !set {
		cfg.FilterLists.Enabled = true
	}
	if cfg.FilterLists.CacheDir == "" {
		cfg.FilterLists.CacheDir = "filter_cache"
	}
	if cfg.FilterLists.CustomRulesFile == "" {
		cfg.FilterLists.CustomRulesFile = "custom_rules.txt"
	}
	if cfg.FilterLists.UpdateIntervalHours == 0 {
		cfg.FilterLists.UpdateIntervalHours = 24
	}
	if cfg.FilterLists.FetchTimeoutSeconds == 0 {
		cfg.FilterLists.FetchTimeoutSeconds = 15
	}

	// WebUI 配置默认值
	if _, set := explicitBool(rawData, "webui", "enabled"); !set {
		cfg.WebUI.Enabled = true
	}
	if cfg.WebUI.ListenPort == 0 {
		cfg.WebUI.ListenPort = 8090
	}

	// System 配置默认值
	if cfg.System.LogLevel == "" {
		cfg.System.LogLevel = "info"
	}
}

// explicitBool 检查原始 YAML 中某个 section 下的 bool 键是否被显式设置
func explicitBool(raw []byte, section, key string) (value bool, set bool) {
	var probe map[string]map[string]interface{}
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return false, false
	}
	v, ok := probe[section][key]
	if !ok {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}
