// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name" validate:"required"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment" validate:"omitempty,oneof=dev staging prod"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// 定价引擎配置
	Pricing PricingConfig `mapstructure:"pricing"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" validate:"min=0"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" validate:"min=0"`
	// 优雅退出等待时间（秒）
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// RedisConfig Redis 配置，Enabled 为 false 时不使用缓存与分布式限流
type RedisConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// 主机地址
	Host string `mapstructure:"host"`
	// 端口
	Port int `mapstructure:"port"`
	// 密码
	Password string `mapstructure:"password"`
	// 数据库编号
	DB int `mapstructure:"db"`
	// 最大连接数
	MaxPoolSize int `mapstructure:"max_pool_size"`
	// 连接超时（秒）
	ConnTimeout int `mapstructure:"conn_timeout"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置，Brokers 为空时不发布事件
type KafkaConfig struct {
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// 定价事件 Topic
	Topic string `mapstructure:"topic"`
	// 最大重试次数
	MaxRetries int `mapstructure:"max_retries"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	// 输出格式
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	// 输出目标
	Output string `mapstructure:"output" validate:"omitempty,oneof=stdout file both"`
	// 文件路径
	FilePath string `mapstructure:"file_path"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age"`
	// 是否压缩
	Compress bool `mapstructure:"compress"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// 指标路径
	Path string `mapstructure:"path"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// 每秒请求数
	QPS int `mapstructure:"qps" validate:"min=0"`
	// 突发容量
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// PricingConfig 定价引擎配置
type PricingConfig struct {
	// 默认模型：Binomial / LongstaffSchwartz
	DefaultModel string `mapstructure:"default_model" validate:"required"`
	// 二叉树默认步数
	LatticeSteps int `mapstructure:"lattice_steps" validate:"min=1"`
	// 模拟默认时间步数
	SimulationSteps int `mapstructure:"simulation_steps" validate:"min=1"`
	// 模拟默认路径数
	Paths int `mapstructure:"paths" validate:"min=1"`
	// 单次请求允许的最大步数
	MaxSteps int `mapstructure:"max_steps" validate:"min=1"`
	// 单次请求允许的最大路径数
	MaxPaths int `mapstructure:"max_paths" validate:"min=1"`
	// 单次模拟路径矩阵允许的最大元素数 paths*(steps+1)
	MaxPathCells int `mapstructure:"max_path_cells" validate:"min=1"`
	// 回归多项式阶数
	RegressionDegree int `mapstructure:"regression_degree" validate:"min=1,max=8"`
	// 路径生成并发数
	Workers int `mapstructure:"workers" validate:"min=1"`
	// 批量定价并发数
	BatchConcurrency int `mapstructure:"batch_concurrency" validate:"min=1"`
	// 单批最大合约数
	MaxBatchSize int `mapstructure:"max_batch_size" validate:"min=1"`
	// 结果缓存时间（秒）
	CacheTTL int `mapstructure:"cache_ttl" validate:"min=0"`
	// 返回价格保留的小数位
	PriceScale int32 `mapstructure:"price_scale" validate:"min=0,max=12"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := newViper()

	// 设置配置文件
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return decode(v)
}

// LoadWithDefaults 从 TOML 文件加载配置，文件不存在时只使用默认值与环境变量
func LoadWithDefaults(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		// 文件不存在时忽略，格式错误等其它错误照常返回
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// 设置环境变量前缀，自动绑定环境变量（使用 _ 替代 .）
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Pricing.Paths > c.Pricing.MaxPaths {
		return fmt.Errorf("pricing.paths %d exceeds pricing.max_paths %d", c.Pricing.Paths, c.Pricing.MaxPaths)
	}
	if c.Pricing.LatticeSteps > c.Pricing.MaxSteps || c.Pricing.SimulationSteps > c.Pricing.MaxSteps {
		return fmt.Errorf("default steps exceed pricing.max_steps %d", c.Pricing.MaxSteps)
	}
	if cells := c.Pricing.Paths * (c.Pricing.SimulationSteps + 1); cells > c.Pricing.MaxPathCells {
		return fmt.Errorf("default simulation grid %d cells exceeds pricing.max_path_cells %d", cells, c.Pricing.MaxPathCells)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "pricing")
	v.SetDefault("version", "dev")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 60)
	v.SetDefault("http.shutdown_timeout", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "pricing.events")
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.qps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("pricing.default_model", "Binomial")
	v.SetDefault("pricing.lattice_steps", 200)
	v.SetDefault("pricing.simulation_steps", 50)
	v.SetDefault("pricing.paths", 10000)
	v.SetDefault("pricing.max_steps", 5000)
	v.SetDefault("pricing.max_paths", 200000)
	v.SetDefault("pricing.max_path_cells", 20_000_000)
	v.SetDefault("pricing.regression_degree", 2)
	v.SetDefault("pricing.workers", 4)
	v.SetDefault("pricing.batch_concurrency", 4)
	v.SetDefault("pricing.max_batch_size", 100)
	v.SetDefault("pricing.cache_ttl", 300)
	v.SetDefault("pricing.price_scale", 6)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
