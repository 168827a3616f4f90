package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 3001
	defaultMaxConnections = 10000
	defaultRedisAddr      = "localhost:6379"
	defaultPostgresConns  = 10

	defaultTurnTimeout    = 15 // 秒
	defaultAbandonTimeout = 5  // 分钟
	defaultRoomTimeout    = 10 // 分钟
	defaultMaxSeats       = 4
	defaultMinSeats       = 3
	defaultHandSize       = 7
	defaultShutdownDelay  = 3 // 秒

	defaultRateMaxPerSecond    = 10
	defaultRateMaxPerMinute    = 60
	defaultRateBanDuration     = 60 // 秒
	defaultMessageMaxPerSecond = 20

	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Auth     AuthConfig     `yaml:"auth"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig 对局历史库配置，DSN 为空时不记录历史
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

// AuthConfig 身份令牌配置，Secret 为空时进入游客模式
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// GameConfig 游戏配置
type GameConfig struct {
	TurnTimeout    int `yaml:"turn_timeout"`    // 出牌超时（秒）
	AbandonTimeout int `yaml:"abandon_timeout"` // 全员掉线后保留房间时长（分钟）
	RoomTimeout    int `yaml:"room_timeout"`    // 无人在线的等待房间超时（分钟）
	MaxSeats       int `yaml:"max_seats"`
	MinSeats       int `yaml:"min_seats"`
	HandSize       int `yaml:"hand_size"`
	ShutdownDelay  int `yaml:"shutdown_delay"` // 关闭前等待消息发出（秒）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	IPWhitelist    []string           `yaml:"ip_whitelist"` // 非空时只允许名单内 IP
	IPBlacklist    []string           `yaml:"ip_blacklist"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text / json
	File   string `yaml:"file"`   // 为空时只输出到 stdout
}

// TurnTimeoutDuration 返回出牌超时时长
func (c *GameConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// AbandonTimeoutDuration 返回全员掉线房间的保留时长
func (c *GameConfig) AbandonTimeoutDuration() time.Duration {
	return time.Duration(c.AbandonTimeout) * time.Minute
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// ShutdownDelayDuration 返回关闭前的等待时长
func (c *GameConfig) ShutdownDelayDuration() time.Duration {
	return time.Duration(c.ShutdownDelay) * time.Second
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// Load 加载配置文件，随后用环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default 返回默认配置（同样接受环境变量覆盖）
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Host, defaultHost)
	setDefault(&c.Server.Port, defaultPort)
	setDefault(&c.Server.MaxConnections, defaultMaxConnections)
	setDefault(&c.Redis.Addr, defaultRedisAddr)
	setDefault(&c.Postgres.MaxConns, defaultPostgresConns)

	setDefault(&c.Game.TurnTimeout, defaultTurnTimeout)
	setDefault(&c.Game.AbandonTimeout, defaultAbandonTimeout)
	setDefault(&c.Game.RoomTimeout, defaultRoomTimeout)
	setDefault(&c.Game.MaxSeats, defaultMaxSeats)
	setDefault(&c.Game.MinSeats, defaultMinSeats)
	setDefault(&c.Game.HandSize, defaultHandSize)
	setDefault(&c.Game.ShutdownDelay, defaultShutdownDelay)

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	setDefault(&c.Security.RateLimit.MaxPerSecond, defaultRateMaxPerSecond)
	setDefault(&c.Security.RateLimit.MaxPerMinute, defaultRateMaxPerMinute)
	setDefault(&c.Security.RateLimit.BanDuration, defaultRateBanDuration)
	setDefault(&c.Security.MessageLimit.MaxPerSecond, defaultMessageMaxPerSecond)

	setDefault(&c.Log.Level, defaultLogLevel)
	setDefault(&c.Log.Format, defaultLogFormat)
}

func (c *Config) applyEnv() {
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envString("POSTGRES_DSN", &c.Postgres.DSN)
	envString("AUTH_SECRET", &c.Auth.Secret)
	envInt("GAME_TURN_TIMEOUT", &c.Game.TurnTimeout)
	envString("LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Security.AllowedOrigins = origins
	}
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func envString(key string, field *string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func envInt(key string, field *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*field = n
		}
	}
}
