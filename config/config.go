package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"exam-planner/internal/planner"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	BaseURL   string          `mapstructure:"base_url"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 写接口限流配置
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
	LogLevel        string `mapstructure:"log_level"`          // silent / error / warn / info
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`  // 排考运行锁过期时间
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 最近一次运行摘要缓存时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PlannerConfig 排考窗口与容量上限
type PlannerConfig struct {
	StartDate        string `mapstructure:"start_date"` // 2006-01-02
	Days             int    `mapstructure:"days"`
	DurationMinutes  int    `mapstructure:"duration_minutes"`
	ExaminerDailyCap int    `mapstructure:"examiner_daily_cap"`
	HallCapacity     int    `mapstructure:"hall_capacity"`
	SlotsPerDay      int    `mapstructure:"slots_per_day"`
	Seed             int64  `mapstructure:"seed"` // 0 表示按时间取种子
}

// Options 转换为排考引擎参数
func (c *PlannerConfig) Options() (planner.Options, error) {
	start, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return planner.Options{}, fmt.Errorf("planner.start_date 格式错误: %w", err)
	}
	return planner.Options{
		StartDate:        start,
		Days:             c.Days,
		DurationMinutes:  c.DurationMinutes,
		ExaminerDailyCap: c.ExaminerDailyCap,
		HallCapacity:     c.HallCapacity,
		SlotsPerDay:      c.SlotsPerDay,
	}, nil
}

// ExportConfig 导出配置
type ExportConfig struct {
	Dir       string `mapstructure:"dir"`
	Delimiter string `mapstructure:"delimiter"` // CSV 分隔符，单字符
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit.max_requests", 10)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "exam_planner")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "10m")
	v.SetDefault("redis.cache_ttl", "1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("planner.start_date", planner.DefaultStartDate.Format("2006-01-02"))
	v.SetDefault("planner.days", planner.DefaultDays)
	v.SetDefault("planner.duration_minutes", planner.DefaultDurationMinutes)
	v.SetDefault("planner.examiner_daily_cap", planner.DefaultExaminerDailyCap)
	v.SetDefault("planner.hall_capacity", planner.DefaultHallCapacity)
	v.SetDefault("planner.slots_per_day", planner.DefaultSlotsPerDay)
	v.SetDefault("planner.seed", 0)

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.delimiter", ",")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if len(c.Export.Delimiter) != 1 {
		return fmt.Errorf("配置校验失败: export.delimiter 必须为单个字符")
	}
	opts, err := c.Planner.Options()
	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("配置校验失败: planner.%w", err)
	}
	return nil
}
