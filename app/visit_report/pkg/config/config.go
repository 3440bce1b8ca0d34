package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// Config pipeline configuration
type Config struct {
	Timezone     string            `yaml:"timezone"`
	Locale       string            `yaml:"locale"`
	Template     string            `yaml:"template"`
	OutputDir    string            `yaml:"output_dir"`
	CatalogDir   string            `yaml:"catalog_dir"`
	CompanySlots int               `yaml:"company_slots"`
	Log          LogConfig         `yaml:"log"`
	Mail         MailConfig        `yaml:"mail"`
	Images       ImagesConfig      `yaml:"images"`
	DB           DBConfig          `yaml:"db"`
	LLM          LLMConfig         `yaml:"llm"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency"`
	Watch        WatchConfig       `yaml:"watch"`
}

// LogConfig logging
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MailConfig SMTP relay and report mail settings
type MailConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Host          string   `yaml:"host"`
	Port          int      `yaml:"port"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	TLS           bool     `yaml:"tls"`
	From          string   `yaml:"from"`
	FromName      string   `yaml:"from_name"`
	AlwaysTo      []string `yaml:"always_to"`
	SignatureName string   `yaml:"signature_name"`
	SignatureOrg  string   `yaml:"signature_org"`
	// PerMinute caps outgoing mails, 0 means unlimited
	PerMinute int `yaml:"per_minute"`
}

// ImagesConfig where uploaded photos are read from
type ImagesConfig struct {
	Provider string `yaml:"provider"` // "dir", "http" or empty for none
	Dir      string `yaml:"dir"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Timeout  int    `yaml:"timeout"` // seconds

	// Rename photo folders normalised by the rename command
	Rename []RenameFolder `yaml:"rename"`
}

// RenameFolder photo folder and the sequence numbers its files take
type RenameFolder struct {
	Dir   string `yaml:"dir"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// DBConfig report archive
type DBConfig struct {
	Driver string `yaml:"driver"` // "postgres" or "sqlite3"
	Source string `yaml:"source"`
}

// LLMConfig optional digest model
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// ConcurrencyConfig LLM rate limiting
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// WatchConfig inbox of submission files
type WatchConfig struct {
	Dir          string `yaml:"dir"`
	Pattern      string `yaml:"pattern"`
	ProcessedDir string `yaml:"processed_dir"`
	FailedDir    string `yaml:"failed_dir"`
	Debounce     string `yaml:"debounce"`
}

// DebounceDelay parsed debounce, 500ms by default
func (w WatchConfig) DebounceDelay() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// DefaultConfig values used for everything the file leaves out
func DefaultConfig() *Config {
	return &Config{
		Timezone:     "Europe/Madrid",
		Locale:       "es_ES",
		Template:     "configs/template.html",
		OutputDir:    "output",
		CompanySlots: 20,
		Log:          LogConfig{Level: "info"},
		Mail:         MailConfig{Port: 587, TLS: true, PerMinute: 20},
		DB:           DBConfig{Driver: "sqlite3"},
		Concurrency:  ConcurrencyConfig{QPS: 1, RPM: 20},
		Watch: WatchConfig{
			Dir:          "inbox",
			Pattern:      "*.json",
			ProcessedDir: "inbox/processed",
			FailedDir:    "inbox/failed",
			Debounce:     "500ms",
		},
	}
}

// LoadConfig reads the YAML file at path. A .env file next to the working
// directory is loaded first and ${VAR} references are expanded.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
	}
	if c.CompanySlots <= 0 {
		return fmt.Errorf("%w: company_slots must be positive", ErrInvalid)
	}
	if c.Mail.Enabled {
		if c.Mail.Host == "" || c.Mail.From == "" {
			return fmt.Errorf("%w: mail.host and mail.from are required when mail is enabled", ErrInvalid)
		}
	}
	switch c.Images.Provider {
	case "", "dir", "http":
	default:
		return fmt.Errorf("%w: unknown images provider %q", ErrInvalid, c.Images.Provider)
	}
	for _, f := range c.Images.Rename {
		if f.Dir == "" || f.Start < 0 || f.End < f.Start {
			return fmt.Errorf("%w: images.rename entry %q needs a dir and 0 <= start <= end", ErrInvalid, f.Dir)
		}
	}
	switch c.DB.Driver {
	case "", "postgres", "sqlite3":
	default:
		return fmt.Errorf("%w: unknown db driver %q", ErrInvalid, c.DB.Driver)
	}
	return nil
}

// Location parsed timezone, falls back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AlwaysToList fixed recipients, entries may hold several comma separated addresses
func (m MailConfig) AlwaysToList() []string {
	var out []string
	for _, entry := range m.AlwaysTo {
		for _, addr := range strings.Split(entry, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}
