package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Security     SecurityConfig     `yaml:"security"`
	Logging      LoggingConfig      `yaml:"logging"`
	Autosave     AutosaveConfig     `yaml:"autosave"`
	Notification NotificationConfig `yaml:"notification"`
}

type ServerConfig struct {
	APIPort int    `yaml:"api_port"`
	Mode    string `yaml:"mode"` // debug, release

	// AllowedOrigins 跨域来源白名单，为空时允许所有来源
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // 数据库驱动: mysql, postgres (默认: mysql)
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
}

// SetDefaults 设置默认值
func (c *DatabaseConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	if c.Port == 0 {
		if c.Driver == "postgres" {
			c.Port = 5432
		} else {
			c.Port = 3306
		}
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 100
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 3600
	}
}

type RedisConfig struct {
	// Enabled 是否启用Redis
	// - true: 启用Redis，支持多机器权限策略同步
	// - false: 禁用Redis，单机部署时使用数据库模式
	Enabled bool `yaml:"enabled"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// ConnectTimeout 连接超时时间（秒，默认5秒）
	ConnectTimeout int `yaml:"connect_timeout"`
	ReadTimeout    int `yaml:"read_timeout"`
	WriteTimeout   int `yaml:"write_timeout"`
	PoolSize       int `yaml:"pool_size"`
	MinIdleConns   int `yaml:"min_idle_conns"`
}

// Validate 验证Redis配置
func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Host == "" {
		return fmt.Errorf("redis host is required when enabled=true")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid redis port: %d", c.Port)
	}

	return nil
}

// SetDefaults 设置默认值
func (c *RedisConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 5
	}
}

type SecurityConfig struct {
	// JWTSecret JWT签名密钥，用于校验上游签发的身份令牌
	JWTSecret string `yaml:"jwt_secret"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Output string `yaml:"output"` // console, file, both
	File   string `yaml:"file"`
}

// AutosaveConfig 草稿自动保存配置
type AutosaveConfig struct {
	// DebounceMs 防抖窗口（毫秒），窗口内的连续编辑合并为一次落库
	DebounceMs int `yaml:"debounce_ms"`
	// MaxRetries 落库失败重试次数上限
	MaxRetries int `yaml:"max_retries"`
	// RetryBackoffMs 重试退避基数（毫秒）
	RetryBackoffMs int `yaml:"retry_backoff_ms"`
}

// SetDefaults 设置默认值
func (c *AutosaveConfig) SetDefaults() {
	if c.DebounceMs == 0 {
		c.DebounceMs = 800
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoffMs == 0 {
		c.RetryBackoffMs = 200
	}
}

// NotificationChannel 单个通知渠道配置
type NotificationChannel struct {
	Platform   string `yaml:"platform"` // feishu, dingtalk, wechat
	WebhookURL string `yaml:"webhook_url"`
	Secret     string `yaml:"secret"`
}

type NotificationConfig struct {
	Enabled  bool                  `yaml:"enabled"`
	Channels []NotificationChannel `yaml:"channels"`
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// 环境变量覆盖敏感配置
	applyEnvOverrides(&cfg)

	// 默认值
	if cfg.Server.APIPort == 0 {
		cfg.Server.APIPort = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "console"
	}
	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Autosave.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database dbname is required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security jwt_secret is required")
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	for i, ch := range c.Notification.Channels {
		if ch.Platform == "" || ch.WebhookURL == "" {
			return fmt.Errorf("notification channel %d: platform and webhook_url are required", i)
		}
	}
	return nil
}

// applyEnvOverrides 环境变量覆盖（密码等敏感信息不建议写进配置文件）
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Security.JWTSecret = v
	}
}
