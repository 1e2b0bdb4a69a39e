package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/gemctl/internal/gemini"
)

// gemctl config.toml key mapping to server runtime settings.
type fileConfig struct {
	Host              string   `toml:"host"`
	Port              int      `toml:"port"`
	CertFile          string   `toml:"cert_file"`
	KeyFile           string   `toml:"key_file"`
	RootPath          string   `toml:"root_path"`
	RequestTimeout    string   `toml:"request_timeout"`
	AdminListenAddr   string   `toml:"admin_listen_addr"`
	AdminCorsOrigins  []string `toml:"admin_cors_origins"`
	AdminToken        string   `toml:"admin_token"`
	CapsuleConfigPath string   `toml:"capsule_config_path"`
}

type runtimeConfig struct {
	Server            gemini.Config
	AdminListenAddr   string
	AdminCorsOrigins  []string
	AdminToken        string
	CapsuleConfigPath string
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{Server: gemini.DefaultConfig()}
}

// loadRuntimeConfig overlays the keys present in path on top of the defaults.
func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load gemctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runtimeConfig{}, fmt.Errorf("load gemctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("host") {
		cfg.Server.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Server.Port = raw.Port
	}
	if meta.IsDefined("cert_file") {
		cfg.Server.CertFile = resolvePath(path, raw.CertFile)
	}
	if meta.IsDefined("key_file") {
		cfg.Server.KeyFile = resolvePath(path, raw.KeyFile)
	}
	if meta.IsDefined("root_path") {
		cfg.Server.RootPath = strings.TrimSpace(raw.RootPath)
	}
	if meta.IsDefined("request_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RequestTimeout))
		if err != nil {
			return runtimeConfig{}, fmt.Errorf("load gemctl config: request_timeout: %w", err)
		}
		cfg.Server.RequestTimeout = d
	}
	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("admin_cors_origins") {
		cfg.AdminCorsOrigins = raw.AdminCorsOrigins
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("capsule_config_path") {
		cfg.CapsuleConfigPath = resolvePath(path, raw.CapsuleConfigPath)
	}

	if err := cfg.Server.Validate(); err != nil {
		return runtimeConfig{}, fmt.Errorf("load gemctl config: %w", err)
	}
	return cfg, nil
}

// resolvePath makes value relative to the directory holding configPath.
func resolvePath(configPath, value string) string {
	resolved := strings.TrimSpace(value)
	if resolved == "" || filepath.IsAbs(resolved) {
		return resolved
	}
	return filepath.Join(filepath.Dir(configPath), resolved)
}
