// Package repository 收藏数据仓库
package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smysle/tunebot-go/internal/database"
	"github.com/smysle/tunebot-go/internal/database/models"
)

// FavoritesRepository 收藏仓库
type FavoritesRepository struct {
	db *gorm.DB
}

// NewFavoritesRepository 创建收藏仓库
func NewFavoritesRepository() *FavoritesRepository {
	return &FavoritesRepository{db: database.GetDB()}
}

// Add 添加收藏。重复添加同一首歌是无操作而非错误
func (r *FavoritesRepository) Add(tg int64, track models.Track) error {
	fav := models.Favorite{
		TG:     tg,
		Source: track.Source,
		SongID: track.SongID,
		Name:   track.Name,
		Artist: track.Artist,
		Album:  track.Album,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
}

// Remove 移除收藏。收藏不存在时同样返回 nil
func (r *FavoritesRepository) Remove(tg int64, source, songID string) error {
	return r.db.
		Where("tg = ? AND source = ? AND song_id = ?", tg, source, songID).
		Delete(&models.Favorite{}).Error
}

// IsFavorite 检查是否已收藏
func (r *FavoritesRepository) IsFavorite(tg int64, source, songID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).
		Where("tg = ? AND source = ? AND song_id = ?", tg, source, songID).
		Count(&count).Error
	return count > 0, err
}

// List 获取收藏列表（按添加时间倒序，分页）
func (r *FavoritesRepository) List(tg int64, page, pageSize int) ([]models.Favorite, int64, error) {
	var favs []models.Favorite
	var total int64

	query := r.db.Model(&models.Favorite{}).Where("tg = ?", tg)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("added_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&favs).Error
	return favs, total, err
}

// Count 统计用户收藏数量
func (r *FavoritesRepository) Count(tg int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).Where("tg = ?", tg).Count(&count).Error
	return count, err
}

// CountAll 统计全部收藏数量
func (r *FavoritesRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).Count(&count).Error
	return count, err
}

// GetAll 获取所有收藏记录（备份用）
func (r *FavoritesRepository) GetAll() ([]models.Favorite, error) {
	var favs []models.Favorite
	err := r.db.Find(&favs).Error
	return favs, err
}
