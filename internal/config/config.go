package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("invalid config")

// ServerConfig mirrors the keys cmd/gemctl reads from its config.toml.
type ServerConfig struct {
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

// CapsuleConfig describes the content served by the demo capsule.
type CapsuleConfig struct {
	Title    string       `toml:"title"`
	Greeting string       `toml:"greeting"`
	Pages    []PageConfig `toml:"pages"`
}

// PageConfig is one static route. Body and File are mutually exclusive; File is
// resolved relative to the capsule config.
type PageConfig struct {
	Path   string `toml:"path"`
	Status int    `toml:"status"`
	Meta   string `toml:"meta"`
	Body   string `toml:"body"`
	File   string `toml:"file"`
}

func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 1965
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadCapsuleConfig(path string) (CapsuleConfig, error) {
	var cfg CapsuleConfig
	if err := loadToml(path, &cfg); err != nil {
		return CapsuleConfig{}, err
	}
	if cfg.Title == "" {
		cfg.Title = "gemctl"
	}
	for i := range cfg.Pages {
		page := &cfg.Pages[i]
		if page.Status == 0 {
			page.Status = 20
		}
		if page.Meta == "" && page.Status/10 == 2 {
			page.Meta = "text/gemini"
		}
		if file := strings.TrimSpace(page.File); file != "" && !filepath.IsAbs(file) {
			page.File = filepath.Join(filepath.Dir(path), file)
		}
	}
	if err := ValidateCapsuleConfig(cfg); err != nil {
		return CapsuleConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("%w: server config missing host", ErrInvalidConfig)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: server config port out of range: %d", ErrInvalidConfig, cfg.Port)
	}
	if strings.TrimSpace(cfg.CertFile) == "" || strings.TrimSpace(cfg.KeyFile) == "" {
		return fmt.Errorf("%w: server config requires cert_file and key_file", ErrInvalidConfig)
	}
	if raw := strings.TrimSpace(cfg.RequestTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: request_timeout %q", ErrInvalidConfig, raw)
		}
	}
	return nil
}

func ValidateCapsuleConfig(cfg CapsuleConfig) error {
	seen := make(map[string]struct{}, len(cfg.Pages))
	for i, page := range cfg.Pages {
		if err := ValidatePage(page); err != nil {
			return fmt.Errorf("page[%d] invalid: %w", i, err)
		}
		if _, ok := seen[page.Path]; ok {
			return fmt.Errorf("page[%d] invalid: %w: duplicate path %q", i, ErrInvalidConfig, page.Path)
		}
		seen[page.Path] = struct{}{}
	}
	return nil
}

func ValidatePage(page PageConfig) error {
	if !strings.HasPrefix(page.Path, "/") {
		return fmt.Errorf("%w: path must start with /", ErrInvalidConfig)
	}
	if page.Status < 10 || page.Status > 69 {
		return fmt.Errorf("%w: status out of range: %d", ErrInvalidConfig, page.Status)
	}
	if strings.ContainsAny(page.Meta, "\r\n") {
		return fmt.Errorf("%w: meta must be a single line", ErrInvalidConfig)
	}
	if page.Body != "" && strings.TrimSpace(page.File) != "" {
		return fmt.Errorf("%w: body and file are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}

// Content returns the page body, reading File when set.
func (p PageConfig) Content() ([]byte, error) {
	if strings.TrimSpace(p.File) == "" {
		return []byte(p.Body), nil
	}
	data, err := os.ReadFile(p.File)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", p.Path, err)
	}
	return data, nil
}
