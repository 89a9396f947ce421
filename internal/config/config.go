package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	AI       AIConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置，本地嵌入式 SQLite
type DatabaseConfig struct {
	Dir  string
	Name string
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	MaxFileSize int64  // 单文件大小上限，字节
	TempDir     string // 会话级临时文件目录，空则使用系统临时目录
}

// AIConfig AI 配置
type AIConfig struct {
	Provider string
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
}

// GeminiConfig Gemini 配置（OpenAI 兼容端点）
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	setDefaults(v)

	// 环境变量
	v.SetEnvPrefix("GEMINI_LENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "gemini-lens")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database
	v.SetDefault("database.dir", "./data")
	v.SetDefault("database.name", "gemini_lens.db")

	// Storage
	v.SetDefault("storage.maxFileSize", 100*1024*1024)
	v.SetDefault("storage.tempDir", "")

	// AI
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.baseUrl", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("ai.gemini.model", "gemini-3-flash-preview")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
}
