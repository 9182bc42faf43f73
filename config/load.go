package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hyper-maker-go/infrastructure/logger"
	"hyper-maker-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string                 `yaml:"env"`
	Log     logger.Config          `yaml:"log"`
	Metrics MetricsConfig          `yaml:"metrics"`
	Gateway GatewayConfig          `yaml:"gateway"`
	Assets  map[string]AssetConfig `yaml:"assets"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type GatewayConfig struct {
	APIURL         string `yaml:"apiURL"`
	WSURL          string `yaml:"wsURL"`
	AccountAddress string `yaml:"accountAddress"`
	APISecret      string `yaml:"apiSecret"`
}

// AssetConfig 保存单资产的报价参数。
type AssetConfig struct {
	TargetLiquidity float64 `yaml:"targetLiquidity"` // 单侧目标挂单量
	HalfSpreadBps   int     `yaml:"halfSpreadBps"`   // 半价差（基点）
	MaxBpsDiff      int     `yaml:"maxBpsDiff"`      // 允许的挂单价偏差（基点）
	MaxAbsPosition  float64 `yaml:"maxAbsPosition"`  // 最大绝对仓位
	Decimals        int     `yaml:"decimals"`        // 价格小数位
}

// Params 转换为策略参数。
func (a AssetConfig) Params() strategy.Params {
	return strategy.Params{
		TargetLiquidity: a.TargetLiquidity,
		HalfSpreadBps:   a.HalfSpreadBps,
		MaxBpsDiff:      a.MaxBpsDiff,
		MaxAbsPosition:  a.MaxAbsPosition,
		Decimals:        a.Decimals,
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_ACCOUNT_ADDRESS"); v != "" {
		cfg.Gateway.AccountAddress = v
	}
	if v := os.Getenv("MM_API_SECRET"); v != "" {
		cfg.Gateway.APISecret = v
	}
	return cfg, Validate(cfg)
}
