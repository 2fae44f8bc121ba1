package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Messaging MessagingConfig `mapstructure:"messaging"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // gin 模式: debug / release / test
	// 首页缓存时间
	IndexCacheTTL time.Duration `mapstructure:"index_cache_ttl"`
	PageSize      int           `mapstructure:"page_size"`
}

type LogConfig struct {
	Level          string `mapstructure:"level"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	CookieName string        `mapstructure:"cookie_name"`
}

// 图片存储: provider 为 local 或 minio
type StorageConfig struct {
	Provider  string      `mapstructure:"provider"`
	LocalPath string      `mapstructure:"local_path"`
	URLPrefix string      `mapstructure:"url_prefix"`
	MaxSize   int64       `mapstructure:"max_size"`
	Minio     MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

type WebSocketConfig struct {
	SendBufferSize int `mapstructure:"send_buffer_size"`

	WriteWaitSeconds int `mapstructure:"write_wait_seconds"`
	PongWaitSeconds  int `mapstructure:"pong_wait_seconds"`
	MaxMessageSize   int `mapstructure:"max_message_size"`
	// 重试相关配置
	MessageRetryCount      int `mapstructure:"message_retry_count"`
	MessageRetryIntervalMs int `mapstructure:"message_retry_interval_ms"`
}

// 通知分发: provider 为 channel 或 kafka
type MessagingConfig struct {
	Provider string      `mapstructure:"provider"`
	Kafka    KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	TopicPrefix   string   `mapstructure:"topic_prefix"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	InstanceID    string   `mapstructure:"instance_id"`
}

var GlobalConfig Config

func Init() error {
	return load("config")
}

// 测试用的配置文件
func InitTest() error {
	return load("config.test")
}

func load(name string) error {
	// 获取项目根目录
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(filepath.Dir(filepath.Dir(b)))

	// .env 是可选的, 不存在时忽略
	_ = godotenv.Load(filepath.Join(basepath, ".env"))

	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(basepath, "config"))
	setDefaults(v)

	// BLOG_DATABASE_DSN 覆盖 database.dsn
	v.SetEnvPrefix("blog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	GlobalConfig = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.index_cache_ttl", 20*time.Second)
	v.SetDefault("server.page_size", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("jwt.cookie_name", "blog_token")
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("storage.url_prefix", "/media/")
	v.SetDefault("storage.max_size", 5<<20)
	v.SetDefault("messaging.provider", "channel")
}
