package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件路径
const DefaultPath = "configs/config.yaml"

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Trivia   TriviaConfig   `yaml:"trivia"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// ServerConfig HTTP/WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"` // 最大同时连接数
	PublicURL      string `yaml:"public_url"`      // 对外访问地址，用于生成加入二维码
}

// RedisConfig Redis 配置，未启用时房间镜像和排行榜不可用
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	MaxPlayers    int `yaml:"max_players"`    // 房间人数上限
	RaceLaps      int `yaml:"race_laps"`      // 赛车圈数
	QuizQuestions int `yaml:"quiz_questions"` // 每局题目数
}

// TriviaConfig 题库配置
type TriviaConfig struct {
	Enabled   bool   `yaml:"enabled"` // 关闭时直接使用内置题库
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Timeout 返回请求超时时长
func (c *TriviaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
	Blacklist      []string           `yaml:"blacklist"`
}

// RateLimitConfig 连接速率限制（按 IP）
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// BanDurationDuration 返回封禁时长
func (c *RateLimitConfig) BanDurationDuration() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 消息速率限制（按连接）
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Pretty bool   `yaml:"pretty"` // 控制台彩色输出，否则输出 JSON
}

// ShutdownConfig 优雅关闭配置
type ShutdownConfig struct {
	Timeout       time.Duration `yaml:"timeout"`        // 等待对局结束的最长时间
	CheckInterval time.Duration `yaml:"check_interval"` // 检查间隔
}

// Load 加载配置文件，未设置的字段使用默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// 先填默认值再解析，yaml 中显式写出的 false 才能覆盖默认的 true
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults 补全被显式置零的字段
func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.MaxConnections <= 0 {
		c.Server.MaxConnections = d.Server.MaxConnections
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = d.Redis.Addr
	}
	if c.Game.MaxPlayers <= 0 {
		c.Game.MaxPlayers = d.Game.MaxPlayers
	}
	if c.Game.RaceLaps <= 0 {
		c.Game.RaceLaps = d.Game.RaceLaps
	}
	if c.Game.QuizQuestions <= 0 {
		c.Game.QuizQuestions = d.Game.QuizQuestions
	}
	if c.Trivia.URL == "" {
		c.Trivia.URL = d.Trivia.URL
	}
	if c.Trivia.TimeoutMs <= 0 {
		c.Trivia.TimeoutMs = d.Trivia.TimeoutMs
	}
	if c.Security.RateLimit.MaxPerSecond <= 0 {
		c.Security.RateLimit.MaxPerSecond = d.Security.RateLimit.MaxPerSecond
	}
	if c.Security.RateLimit.MaxPerMinute <= 0 {
		c.Security.RateLimit.MaxPerMinute = d.Security.RateLimit.MaxPerMinute
	}
	if c.Security.RateLimit.BanDuration <= 0 {
		c.Security.RateLimit.BanDuration = d.Security.RateLimit.BanDuration
	}
	if c.Security.MessageLimit.MaxPerSecond <= 0 {
		c.Security.MessageLimit.MaxPerSecond = d.Security.MessageLimit.MaxPerSecond
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Shutdown.Timeout <= 0 {
		c.Shutdown.Timeout = d.Shutdown.Timeout
	}
	if c.Shutdown.CheckInterval <= 0 {
		c.Shutdown.CheckInterval = d.Shutdown.CheckInterval
	}
}

// Validate 校验配置取值范围
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	if c.Shutdown.CheckInterval > c.Shutdown.Timeout {
		return errors.New("shutdown.check_interval must not exceed shutdown.timeout")
	}
	return nil
}

// Addr 返回监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           1780,
			MaxConnections: 1000,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Game: GameConfig{
			MaxPlayers:    20,
			RaceLaps:      3,
			QuizQuestions: 7,
		},
		Trivia: TriviaConfig{
			Enabled:   true,
			URL:       "https://opentdb.com/api.php",
			TimeoutMs: 4000,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				MaxPerSecond: 10,
				MaxPerMinute: 60,
				BanDuration:  60,
			},
			// 赛车位置上报频率较高
			MessageLimit: MessageLimitConfig{MaxPerSecond: 100},
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Shutdown: ShutdownConfig{
			Timeout:       60 * time.Second,
			CheckInterval: 5 * time.Second,
		},
	}
}
