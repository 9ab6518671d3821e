package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// 全局配置结构体
type GlobalConfig struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	AI        AIConfig        `mapstructure:"ai" yaml:"ai"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Report    ReportConfig    `mapstructure:"report" yaml:"report"`
}

// Server 配置
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	Secret      string `mapstructure:"secret" yaml:"secret"`
	OpenBrowser bool   `mapstructure:"open_browser" yaml:"open_browser"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// URL 本地访问地址
func (s ServerConfig) URL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

// 文件存储配置
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir" yaml:"upload_dir"`
}

// 数据库配置
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// AI 配置
type AIConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries  uint64        `mapstructure:"max_retries" yaml:"max_retries"`
	Language    string        `mapstructure:"language" yaml:"language"`
}

// 采集器配置
type CollectorConfig struct {
	ForceSample   bool   `mapstructure:"force_sample" yaml:"force_sample"`
	HistoryDays   int    `mapstructure:"history_days" yaml:"history_days"`
	RecentDays    int    `mapstructure:"recent_days" yaml:"recent_days"`
	RecentDir     string `mapstructure:"recent_dir" yaml:"recent_dir"`
	RecentPattern string `mapstructure:"recent_pattern" yaml:"recent_pattern"`
	RecentLimit   int    `mapstructure:"recent_limit" yaml:"recent_limit"`
	ChromeDir     string `mapstructure:"chrome_dir" yaml:"chrome_dir"`
}

// 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// 报告配置
type ReportConfig struct {
	ChromePath string        `mapstructure:"chrome_path" yaml:"chrome_path"`
	PDFTimeout time.Duration `mapstructure:"pdf_timeout" yaml:"pdf_timeout"`
}

// Default 默认配置
func Default() *GlobalConfig {
	return &GlobalConfig{
		Server: ServerConfig{
			Host:   "127.0.0.1",
			Port:   8080,
			Secret: "change-me-please",
		},
		Storage:  StorageConfig{UploadDir: "uploads"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "digital_insight.db"},
		AI: AIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			Timeout:     60 * time.Second,
			MaxRetries:  2,
			Language:    "zh",
		},
		Collector: CollectorConfig{
			HistoryDays:   30,
			RecentDays:    7,
			RecentPattern: "*.lnk",
			RecentLimit:   30,
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Report: ReportConfig{PDFTimeout: 30 * time.Second},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.secret", d.Server.Secret)
	v.SetDefault("server.open_browser", d.Server.OpenBrowser)
	v.SetDefault("storage.upload_dir", d.Storage.UploadDir)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("ai.base_url", d.AI.BaseURL)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.temperature", d.AI.Temperature)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("ai.max_retries", d.AI.MaxRetries)
	v.SetDefault("ai.language", d.AI.Language)
	v.SetDefault("collector.force_sample", d.Collector.ForceSample)
	v.SetDefault("collector.history_days", d.Collector.HistoryDays)
	v.SetDefault("collector.recent_days", d.Collector.RecentDays)
	v.SetDefault("collector.recent_dir", "")
	v.SetDefault("collector.recent_pattern", d.Collector.RecentPattern)
	v.SetDefault("collector.recent_limit", d.Collector.RecentLimit)
	v.SetDefault("collector.chrome_dir", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("report.chrome_path", "")
	v.SetDefault("report.pdf_timeout", d.Report.PDFTimeout)
}

// InitConfig 初始化配置
// configFile 为空时按默认路径查找 config.yaml，找不到时仅使用默认值和环境变量
func InitConfig(configFile string) (*GlobalConfig, error) {
	// .env 文件可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("加载 .env 文件失败: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config") // 配置文件名称（不带扩展名）
		v.SetConfigType("yaml")   // 配置文件类型
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DIGITAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容常见的环境变量名
	_ = v.BindEnv("ai.api_key", "DIGITAL_AI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.base_url", "DIGITAL_AI_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("ai.model", "DIGITAL_AI_MODEL", "OPENAI_MODEL")
	_ = v.BindEnv("server.port", "DIGITAL_SERVER_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		log.Info("未找到配置文件，使用默认配置")
	} else {
		log.Infof("已加载配置文件: %s", v.ConfigFileUsed())
	}

	var cfg GlobalConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &cfg, nil
}

// WriteDefault 将默认配置写入 path
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("配置文件已存在: %s", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("序列化默认配置失败: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
