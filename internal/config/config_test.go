// Package config 配置模块测试
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_IsAllowed(t *testing.T) {
	cfg := &Config{
		Allowed: []int64{11111, 22222},
	}

	tests := []struct {
		name     string
		userID   int64
		expected bool
	}{
		{"白名单用户放行", 11111, true},
		{"白名单用户2放行", 22222, true},
		{"非白名单用户拒绝", 99999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.IsAllowed(tt.userID); got != tt.expected {
				t.Errorf("IsAllowed(%d) = %v, want %v", tt.userID, got, tt.expected)
			}
		})
	}
}

func TestConfig_IsAllowed_EmptyListIsOpen(t *testing.T) {
	cfg := &Config{}

	if !cfg.IsAllowed(99999) {
		t.Error("白名单为空时应对所有人开放")
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	if cfg.DefaultQuality != "320k" {
		t.Errorf("默认音质应该是 '320k'，实际是 '%s'", cfg.DefaultQuality)
	}

	if cfg.Upload.MaxFileSize != 50*1024*1024 {
		t.Errorf("默认上传上限应该是 50MB，实际是 %d", cfg.Upload.MaxFileSize)
	}

	if cfg.API.BaseURL == "" {
		t.Error("默认 API 地址不应为空")
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("默认数据库驱动应该是 'sqlite'，实际是 '%s'", cfg.Database.Driver)
	}

	if cfg.Database.Port != 3306 {
		t.Errorf("默认数据库端口应该是 3306，实际是 %d", cfg.Database.Port)
	}

	if cfg.Web.Port != 8838 {
		t.Errorf("默认 Web 端口应该是 8838，实际是 %d", cfg.Web.Port)
	}

	if cfg.Database.BackupMaxDays != 7 {
		t.Errorf("默认备份保留天数应该是 7，实际是 %d", cfg.Database.BackupMaxDays)
	}
}

func TestConfig_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"bot_token": "123:abc",
		"archive_channel_id": -100123456,
		"default_quality": "flac",
		"api": {"base_url": "https://example.com/api", "timeout": 30}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() 错误: %v", err)
	}

	if cfg.BotToken != "123:abc" {
		t.Errorf("BotToken = %s", cfg.BotToken)
	}
	if cfg.ArchiveChannelID != -100123456 {
		t.Errorf("ArchiveChannelID = %d", cfg.ArchiveChannelID)
	}
	if cfg.DefaultQuality != "flac" {
		t.Errorf("DefaultQuality = %s", cfg.DefaultQuality)
	}
	// 未填字段要有默认值
	if cfg.Upload.MaxFileSize != 50*1024*1024 {
		t.Errorf("MaxFileSize 默认值缺失: %d", cfg.Upload.MaxFileSize)
	}

	// 全局单例要被更新
	if Get() != cfg {
		t.Error("Get() 应返回最近一次 Load 的配置")
	}
}
