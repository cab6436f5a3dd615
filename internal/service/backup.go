// Package service 业务服务 - 数据备份
package service

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/internal/database/repository"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// backupSnapshot 备份文件内容
type backupSnapshot struct {
	CreatedAt time.Time         `json:"created_at"`
	Favorites []models.Favorite `json:"favorites"`
	History   []models.History  `json:"history"`
}

// BackupService 定时备份收藏与历史数据
type BackupService struct {
	cfg       *config.Config
	favorites *repository.FavoritesRepository
	history   *repository.HistoryRepository
}

// NewBackupService 创建备份服务
func NewBackupService() *BackupService {
	return &BackupService{
		cfg:       config.Get(),
		favorites: repository.NewFavoritesRepository(),
		history:   repository.NewHistoryRepository(),
	}
}

// Run 执行一次备份并清理过期文件
func (s *BackupService) Run() error {
	favorites, err := s.favorites.GetAll()
	if err != nil {
		return fmt.Errorf("读取收藏失败: %w", err)
	}

	history, err := s.history.GetAll()
	if err != nil {
		return fmt.Errorf("读取历史失败: %w", err)
	}

	if err := os.MkdirAll(s.cfg.Database.BackupDir, 0755); err != nil {
		return fmt.Errorf("创建备份目录失败: %w", err)
	}

	name := fmt.Sprintf("tunebot_%s_%s.json.gz",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8])
	path := filepath.Join(s.cfg.Database.BackupDir, name)

	if err := s.write(path, &backupSnapshot{
		CreatedAt: time.Now(),
		Favorites: favorites,
		History:   history,
	}); err != nil {
		return err
	}

	logger.Info().
		Str("file", path).
		Int("favorites", len(favorites)).
		Int("history", len(history)).
		Msg("数据备份完成")

	s.cleanup()
	return nil
}

func (s *BackupService) write(path string, snapshot *backupSnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建备份文件失败: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	defer gw.Close()

	enc := json.NewEncoder(gw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("写入备份失败: %w", err)
	}
	return nil
}

// cleanup 删除超过保留天数的备份
func (s *BackupService) cleanup() {
	maxAge := time.Duration(s.cfg.Database.BackupMaxDays) * 24 * time.Hour
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(s.cfg.Database.BackupDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "tunebot_") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.Database.BackupDir, entry.Name())); err == nil {
			logger.Debug().Str("file", entry.Name()).Msg("清理过期备份")
		}
	}
}
