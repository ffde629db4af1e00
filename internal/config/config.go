package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPPort       = 3000
	DefaultPrometheusPort = 9090
	DefaultBackendTimeout = 15 * time.Second
	DefaultSessionTTL     = 24 * time.Hour
	DefaultSessionCookie  = "pulse_session"
	DefaultImageUploadURL = "https://api.imgbb.com/1/upload"
	DefaultLoginAttempts  = 10
	DefaultLoginWindow    = time.Minute
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Backend    BackendConfig    `yaml:"backend"`
	Images     ImagesConfig     `yaml:"images"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// MapTileURL is the tile template used by the search and detail maps.
	MapTileURL string `yaml:"map_tile_url"`
	// TimeZone is the IANA zone event dates are shown and entered in.
	TimeZone string `yaml:"time_zone"`
}

// Location resolves TimeZone. Validate has already rejected unknown zones.
func (s ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BackendConfig points at the REST API that owns all business data.
type BackendConfig struct {
	BaseURI string        `yaml:"base_uri"`
	Timeout time.Duration `yaml:"timeout"`
	// Retries bounds how often a failed read is repeated.
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type ImagesConfig struct {
	UploadURL string        `yaml:"upload_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type RateLimitConfig struct {
	RPS           float64       `yaml:"rps"`
	Burst         int           `yaml:"burst"`
	LoginAttempts int           `yaml:"login_attempts"`
	LoginWindow   time.Duration `yaml:"login_window"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads the YAML config at configPath, expanding ${VAR} references
// from the environment (and from .env when present).
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURI) == "" {
		return errors.New("backend base_uri is required")
	}
	u, err := url.Parse(c.Backend.BaseURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend base_uri %q is not an absolute URL", c.Backend.BaseURI)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if _, err := time.LoadLocation(c.Server.TimeZone); err != nil {
		return fmt.Errorf("server time_zone %q: %w", c.Server.TimeZone, err)
	}
	if c.Backend.Retries < 0 {
		return errors.New("backend retries must not be negative")
	}
	if c.Session.TTL < 0 {
		return errors.New("session ttl must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "pulse-web"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultHTTPPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.MapTileURL == "" {
		c.Server.MapTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	}
	if c.Server.TimeZone == "" {
		c.Server.TimeZone = "UTC"
	}
	c.Backend.BaseURI = strings.TrimRight(c.Backend.BaseURI, "/")
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = DefaultBackendTimeout
	}
	if c.Backend.RetryDelay == 0 {
		c.Backend.RetryDelay = 200 * time.Millisecond
	}
	if c.Images.UploadURL == "" {
		c.Images.UploadURL = DefaultImageUploadURL
	}
	if c.Images.Timeout == 0 {
		c.Images.Timeout = 30 * time.Second
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultSessionCookie
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.RateLimit.LoginAttempts == 0 {
		c.RateLimit.LoginAttempts = DefaultLoginAttempts
	}
	if c.RateLimit.LoginWindow == 0 {
		c.RateLimit.LoginWindow = DefaultLoginWindow
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = DefaultPrometheusPort
	}
}
