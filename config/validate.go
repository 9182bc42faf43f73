package config

import (
	"errors"
	"fmt"
)

// Validate ensures required fields are present. Credentials are checked
// separately in CheckCredentials so env overrides can fill them in later.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Gateway.APIURL == "" {
		return errors.New("gateway.apiURL is required")
	}
	if cfg.Gateway.WSURL == "" {
		return errors.New("gateway.wsURL is required")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	if len(cfg.Assets) == 0 {
		return errors.New("assets config is required")
	}
	for asset, ac := range cfg.Assets {
		if ac.TargetLiquidity <= 0 {
			return fmt.Errorf("asset %s targetLiquidity must be > 0", asset)
		}
		if ac.HalfSpreadBps <= 0 {
			return fmt.Errorf("asset %s halfSpreadBps must be > 0", asset)
		}
		if ac.MaxBpsDiff <= 0 {
			return fmt.Errorf("asset %s maxBpsDiff must be > 0", asset)
		}
		if ac.MaxAbsPosition <= 0 {
			return fmt.Errorf("asset %s maxAbsPosition must be > 0", asset)
		}
		if ac.Decimals < 0 {
			return fmt.Errorf("asset %s decimals must be >= 0", asset)
		}
	}
	return nil
}

// CheckCredentials 校验账户凭证已经就位（来自配置文件或环境变量）。
func CheckCredentials(cfg AppConfig) error {
	if cfg.Gateway.AccountAddress == "" || cfg.Gateway.APISecret == "" {
		return errors.New("gateway.accountAddress/apiSecret is required (or env overrides)")
	}
	return nil
}
