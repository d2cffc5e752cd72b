package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CreateDefaultConfig 创建默认配置文件
func CreateDefaultConfig(filePath string) error {
	return os.WriteFile(filePath, []byte(DefaultConfigContent), 0644)
}

// LoadConfig 从 YAML 文件加载配置
// 文件不存在时自动创建默认配置文件。
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := CreateDefaultConfig(filePath); err != nil {
				return nil, err
			}
			data, err = os.ReadFile(filePath)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	setDefaultValues(&cfg, data)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig 将配置写回 YAML 文件
func SaveConfig(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

func validate(cfg *Config) error {
	switch cfg.Engine.BlockingLevel {
	case "standard", "aggressive", "strict":
	default:
		return fmt.Errorf("invalid blocking_level %q (want standard, aggressive or strict)", cfg.Engine.BlockingLevel)
	}
	if cfg.WebUI.ListenPort < 0 || cfg.WebUI.ListenPort > 65535 {
		return fmt.Errorf("invalid webui listen_port %d", cfg.WebUI.ListenPort)
	}
	return nil
}
