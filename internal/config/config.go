package config

import (
	"strings"

	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	DevMode bool   `mapstructure:"dev_mode"` // 开启水龙头和时钟推进接口
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LedgerConfig 本地账本配置
type LedgerConfig struct {
	Storage       StorageConfig `mapstructure:"storage"`
	BlockInterval int           `mapstructure:"block_interval"` // 出块间隔（秒）
	GenesisTime   int64         `mapstructure:"genesis_time"`   // 创世区块时间，0 表示启动时间
	Decimals      int32         `mapstructure:"decimals"`       // 原生币精度
}

// StorageConfig 键值存储配置
type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // leveldb, memory, redis
	Path          string `mapstructure:"path"`    // leveldb 数据目录
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"` // redis key 前缀
}

type TaskConfig struct {
	Interval  int `mapstructure:"interval"`   // 秒
	BatchSize int `mapstructure:"batch_size"` // 每次同步的事件数
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/crowdfunding")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.dev_mode", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "crowdfunding")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("ledger.storage.backend", "leveldb")
	viper.SetDefault("ledger.storage.path", "data/ledger")
	viper.SetDefault("ledger.storage.redis_addr", "127.0.0.1:6379")
	viper.SetDefault("ledger.storage.redis_password", "")
	viper.SetDefault("ledger.storage.redis_db", 0)
	viper.SetDefault("ledger.storage.prefix", "cf:")
	viper.SetDefault("ledger.block_interval", 6)
	viper.SetDefault("ledger.genesis_time", 0)
	viper.SetDefault("ledger.decimals", 18)
	viper.SetDefault("task.interval", 10)
	viper.SetDefault("task.batch_size", 500)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量，如 LEDGER_STORAGE_BACKEND
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
