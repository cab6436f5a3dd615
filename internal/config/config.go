// Package config 配置管理模块
package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Config 全局配置结构
type Config struct {
	BotName  string  `json:"bot_name"`
	BotToken string  `json:"bot_token"`
	Allowed  []int64 `json:"allowed_users"` // 允许使用的用户，为空则对所有人开放

	// 归档频道
	ArchiveChannelID int64 `json:"archive_channel_id"`

	// 默认下载音质
	DefaultQuality string `json:"default_quality"`

	Upload    UploadConfig    `json:"upload"`
	API       APIConfig       `json:"api"`
	Database  DatabaseConfig  `json:"database"`
	Web       WebConfig       `json:"web"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

// UploadConfig 上传配置。Bot API 上传上限 50MB，超限的音质自动降级
type UploadConfig struct {
	MaxFileSize int64 `json:"max_file_size"`
}

// APIConfig TuneHub API 配置
type APIConfig struct {
	BaseURL string `json:"base_url"`
	Key     string `json:"key"`
	Timeout int    `json:"timeout"` // 秒
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver         string `json:"driver"` // sqlite / mysql
	Path           string `json:"path"`   // sqlite 数据库文件
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	BackupDir      string `json:"backup_dir"`
	BackupMaxDays  int    `json:"backup_max_days"`
}

// WebConfig Web API 配置
type WebConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	BackupDB   bool `json:"backup_db"`
	FlushCache bool `json:"flush_cache"`
}

var (
	cfg     *Config
	cfgLock sync.RWMutex
)

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// 设置默认值
	config.setDefaults()

	cfgLock.Lock()
	cfg = &config
	cfgLock.Unlock()

	return &config, nil
}

// Get 获取全局配置（线程安全）
func Get() *Config {
	cfgLock.RLock()
	defer cfgLock.RUnlock()
	return cfg
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.BotName == "" {
		c.BotName = "TuneBot"
	}
	if c.DefaultQuality == "" {
		c.DefaultQuality = "320k"
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = 50 * 1024 * 1024
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://tunehub.sayqz.com"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 60
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/tunebot.db"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.BackupDir == "" {
		c.Database.BackupDir = "./backups"
	}
	if c.Database.BackupMaxDays == 0 {
		c.Database.BackupMaxDays = 7
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8838
	}
}

// IsAllowed 判断用户是否在白名单内（白名单为空则全部放行）
func (c *Config) IsAllowed(userID int64) bool {
	if len(c.Allowed) == 0 {
		return true
	}
	for _, id := range c.Allowed {
		if id == userID {
			return true
		}
	}
	return false
}
