package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir       string         `json:"data_dir" yaml:"data_dir"`
	LogLevel      string         `json:"log_level" yaml:"log_level"`
	MaxConcurrent int            `json:"max_concurrent" yaml:"max_concurrent"`
	StoreID       string         `json:"store_id" yaml:"store_id"`
	Region        string         `json:"region" yaml:"region"`
	ModelID       string         `json:"model_id" yaml:"model_id"`
	HTTP          HTTPConfig     `json:"http" yaml:"http"`
	Stream        StreamConfig   `json:"stream" yaml:"stream"`
	Store         StoreConfig    `json:"store" yaml:"store"`
	Workflow      WorkflowConfig `json:"workflow" yaml:"workflow"`
	Telegram      struct {
		Token string `json:"token" yaml:"token" secret:"true"`
	} `json:"telegram" yaml:"telegram"`
}

type HTTPConfig struct {
	Listen         string   `json:"listen" yaml:"listen"`
	CORSOrigins    []string `json:"cors_origins" yaml:"cors_origins"`
	RateLimitRPS   float64  `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int      `json:"rate_limit_burst" yaml:"rate_limit_burst"`
}

type StreamConfig struct {
	BusCapacity      int `json:"bus_capacity" yaml:"bus_capacity"`
	HeartbeatSeconds int `json:"heartbeat_interval_seconds" yaml:"heartbeat_interval_seconds"`
}

// Heartbeat returns the idle interval after which subscribers get a heartbeat.
func (s StreamConfig) Heartbeat() time.Duration {
	return time.Duration(s.HeartbeatSeconds) * time.Second
}

type StoreConfig struct {
	Backend       string       `json:"backend" yaml:"backend"`
	Path          string       `json:"path" yaml:"path"`
	RedisAddr     string       `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string       `json:"redis_password" yaml:"redis_password" secret:"true"`
	RedisDB       int          `json:"redis_db" yaml:"redis_db"`
	KeyPrefix     string       `json:"key_prefix" yaml:"key_prefix"`
	Tables        TablesConfig `json:"tables" yaml:"tables"`
}

type TablesConfig struct {
	Inventory      string `json:"inventory" yaml:"inventory"`
	Orders         string `json:"orders" yaml:"orders"`
	Equipment      string `json:"equipment" yaml:"equipment"`
	Customers      string `json:"customers" yaml:"customers"`
	StaffSchedules string `json:"staff_schedules" yaml:"staff_schedules"`
}

type WorkflowConfig struct {
	Mode           string `json:"mode" yaml:"mode"`
	URL            string `json:"url" yaml:"url"`
	StateMachine   string `json:"state_machine" yaml:"state_machine"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".storeops"),
		MaxConcurrent: 4,
	}
	cfg.LogLevel = "info"
	cfg.StoreID = "store-001"
	cfg.Region = "us-east-1"
	cfg.ModelID = "amazon.nova-pro-v1:0"
	cfg.HTTP.Listen = ":8000"
	cfg.HTTP.CORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	cfg.HTTP.RateLimitRPS = 2
	cfg.HTTP.RateLimitBurst = 5
	cfg.Stream.BusCapacity = 100
	cfg.Stream.HeartbeatSeconds = 120
	cfg.Store.Backend = "sqlite"
	cfg.Store.RedisAddr = "localhost:6379"
	cfg.Store.KeyPrefix = "storeops:"
	cfg.Store.Tables = TablesConfig{
		Inventory:      "store-inventory",
		Orders:         "store-orders",
		Equipment:      "store-equipment",
		Customers:      "store-customers",
		StaffSchedules: "store-staff-schedules",
	}
	cfg.Workflow.Mode = "local"
	cfg.Workflow.StateMachine = "StoreOperationsWorkflow"
	cfg.Workflow.TimeoutSeconds = 10
	return cfg
}

func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	// Override from env (highest precedence)
	if v := os.Getenv("STOREOPS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STOREOPS_LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := os.Getenv("STOREOPS_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Store.RedisPassword = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv("STORE_ID"); v != "" {
		cfg.StoreID = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("WORKFLOW_URL"); v != "" {
		cfg.Workflow.URL = v
		if cfg.Workflow.Mode == "local" {
			cfg.Workflow.Mode = "remote"
		}
	}
	if v := os.Getenv("STOREOPS_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse STOREOPS_MAX_CONCURRENT: %w", err)
		}
		cfg.MaxConcurrent = n
	}

	cfg.normalize()
	return cfg, nil
}

// loadFile applies the file at path over the defaults, writing the
// defaults there when the file does not exist yet.
func loadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	def := Default()
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.Stream.BusCapacity <= 0 {
		c.Stream.BusCapacity = def.Stream.BusCapacity
	}
	if c.Stream.HeartbeatSeconds <= 0 {
		c.Stream.HeartbeatSeconds = def.Stream.HeartbeatSeconds
	}
	if c.Workflow.TimeoutSeconds <= 0 {
		c.Workflow.TimeoutSeconds = def.Workflow.TimeoutSeconds
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	c.Workflow.Mode = strings.ToLower(c.Workflow.Mode)
}

// Save writes cfg to path atomically, as YAML for .yaml/.yml paths and
// JSON otherwise.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := encode(path, cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, data)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decode(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func encode(path string, v any) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
