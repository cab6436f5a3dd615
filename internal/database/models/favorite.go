// Package models 数据模型 - 收藏记录
package models

import (
	"time"
)

// Favorite 收藏记录表，(tg, source, song_id) 唯一
type Favorite struct {
	ID      uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TG      int64     `gorm:"column:tg;index;uniqueIndex:uniq_favorite,priority:1" json:"tg"`
	Source  string    `gorm:"column:source;size:32;uniqueIndex:uniq_favorite,priority:2" json:"source"`
	SongID  string    `gorm:"column:song_id;size:255;uniqueIndex:uniq_favorite,priority:3" json:"song_id"`
	Name    string    `gorm:"column:name;size:500" json:"name"`
	Artist  string    `gorm:"column:artist;size:500" json:"artist"`
	Album   string    `gorm:"column:album;size:500" json:"album"`
	AddedAt time.Time `gorm:"column:added_at;autoCreateTime" json:"added_at"`
}

// TableName 表名
func (Favorite) TableName() string {
	return "favorites"
}

// Track 转换为歌曲信息
func (f *Favorite) Track() Track {
	return Track{
		Source: f.Source,
		SongID: f.SongID,
		Name:   f.Name,
		Artist: f.Artist,
		Album:  f.Album,
	}
}
