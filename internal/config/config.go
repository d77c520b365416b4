package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port                    int              `json:"port"`
	API                     APIConfig        `json:"api"`
	Vault                   VaultConfig      `json:"vault"`
	Session                 SessionConfig    `json:"session"`
	Export                  ExportConfig     `json:"export"`
	CORSOrigins             []string         `json:"cors_origins"`
	AnalyzeRateLimitSeconds int              `json:"analyze_rate_limit_seconds"`
	LogConfig               logger.LogConfig `json:"log_config"`
}

type APIConfig struct {
	BaseURL        string `json:"base_url"`
	AnalyzePath    string `json:"analyze_path"`
	SavePath       string `json:"save_path"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxUploadMB    int64  `json:"max_upload_mb"`
	Token          string `json:"token"`
	AuthSession    string `json:"auth_session"`
}

type VaultConfig struct {
	ScryptN          int `json:"scrypt_n"`
	SuccessDisplayMS int `json:"success_display_ms"`
	ErrorDisplayMS   int `json:"error_display_ms"`
}

type SessionConfig struct {
	Size       int `json:"size"`
	TTLMinutes int `json:"ttl_minutes"`
}

type ExportConfig struct {
	Store       FileStoreConfig `json:"store"`
	CleanupCron string          `json:"cleanup_cron"`
	MaxAgeHours int             `json:"max_age_hours"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c APIConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func (c VaultConfig) SuccessDisplay() time.Duration {
	return time.Duration(c.SuccessDisplayMS) * time.Millisecond
}

func (c VaultConfig) ErrorDisplay() time.Duration {
	return time.Duration(c.ErrorDisplayMS) * time.Millisecond
}

func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c ExportConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if cfg.API.AnalyzePath == "" {
		cfg.API.AnalyzePath = "/documents/analyze/stream"
	}
	if cfg.API.SavePath == "" {
		cfg.API.SavePath = "/documents/save"
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 120
	}
	if cfg.API.MaxUploadMB == 0 {
		cfg.API.MaxUploadMB = 20
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Vault.ScryptN == 0 {
		cfg.Vault.ScryptN = 1 << 15
	}
	if cfg.Vault.ScryptN&(cfg.Vault.ScryptN-1) != 0 || cfg.Vault.ScryptN < 2 {
		return fmt.Errorf("vault.scrypt_n must be a power of two")
	}
	if cfg.Vault.SuccessDisplayMS == 0 {
		cfg.Vault.SuccessDisplayMS = 2000
	}
	if cfg.Vault.ErrorDisplayMS == 0 {
		cfg.Vault.ErrorDisplayMS = 4000
	}
	if cfg.Session.Size == 0 {
		cfg.Session.Size = 256
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 120
	}
	if cfg.Export.Store.Type == "" {
		cfg.Export.Store.Type = "local"
	}
	switch cfg.Export.Store.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("export.store.type must be local or s3")
	}
	if cfg.Export.Store.Data == nil {
		cfg.Export.Store.Data = map[string]interface{}{"dir": "exports"}
	}
	if cfg.Export.CleanupCron == "" {
		cfg.Export.CleanupCron = "0 * * * *"
	}
	if cfg.Export.MaxAgeHours == 0 {
		cfg.Export.MaxAgeHours = 24
	}
	if cfg.AnalyzeRateLimitSeconds == 0 {
		cfg.AnalyzeRateLimitSeconds = 2
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return nil
}
