package config

// 默认配置文件内容（包含详细说明）
const DefaultConfigContent = `# webshield 配置文件

# 拦截引擎配置
engine:
  # 是否启用拦截引擎（默认 true）
  enabled: true
  # 拦截级别：standard（仅已知广告/跟踪域名）、aggressive（附加关键词启发式）、
  # strict（附加营销/挖矿/恶意域名与组合启发式）
  blocking_level: "standard"
  # 白名单域名或 URL 子串，命中则永远放行
  whitelisted_domains: []

# 订阅规则列表配置
filterlists:
  # 是否启用订阅规则（默认 true）
  enabled: true
  # 仅豁免订阅规则匹配的模式列表
  whitelisted_patterns: []
  # 规则缓存目录
  cache_dir: "filter_cache"
  # 自定义规则文件路径
  custom_rules_file: "custom_rules.txt"
  # 自动更新间隔（小时，默认 24）
  update_interval_hours: 24
  # 单个订阅下载超时（秒，默认 15）
  fetch_timeout_seconds: 15

# Web 管理接口配置
webui:
  # 是否启用 Web 管理接口（默认 true）
  enabled: true
  # 监听端口（默认 8090）
  listen_port: 8090

# 系统配置
system:
  # 日志级别：debug | info | warn | error
  log_level: "info"
`
