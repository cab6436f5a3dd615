// Package repository 下载历史数据仓库
package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/smysle/tunebot-go/internal/database"
	"github.com/smysle/tunebot-go/internal/database/models"
)

// HistoryRepository 下载历史仓库
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建下载历史仓库
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{db: database.GetDB()}
}

// Record 写入一条历史记录（仅追加，单行事务）
func (r *HistoryRepository) Record(entry *models.History) error {
	return r.db.Create(entry).Error
}

// List 获取用户历史记录（最新在前，分页）
func (r *HistoryRepository) List(tg int64, page, pageSize int) ([]models.History, int64, error) {
	var records []models.History
	var total int64

	query := r.db.Model(&models.History{}).Where("tg = ?", tg)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("downloaded_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&records).Error
	return records, total, err
}

// Recent 获取用户最近的历史记录，最多 limit 条
func (r *HistoryRepository) Recent(tg int64, limit int) ([]models.History, error) {
	var records []models.History
	err := r.db.Where("tg = ?", tg).
		Order("downloaded_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// GetByID 根据 ID 获取历史记录，不存在返回 nil
func (r *HistoryRepository) GetByID(id uint) (*models.History, error) {
	var record models.History
	err := r.db.First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindBySong 查找某首歌最近一条带 file_id 的记录（用于免下载重发），没有返回 nil
func (r *HistoryRepository) FindBySong(source, songID string) (*models.History, error) {
	var record models.History
	err := r.db.
		Where("source = ? AND song_id = ? AND file_id != ''", source, songID).
		Order("downloaded_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Count 统计用户历史数量
func (r *HistoryRepository) Count(tg int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.History{}).Where("tg = ?", tg).Count(&count).Error
	return count, err
}

// CountAll 统计全部历史数量
func (r *HistoryRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.History{}).Count(&count).Error
	return count, err
}

// GetAll 获取所有历史记录（备份用）
func (r *HistoryRepository) GetAll() ([]models.History, error) {
	var records []models.History
	err := r.db.Find(&records).Error
	return records, err
}
