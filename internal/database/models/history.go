// Package models 数据模型 - 下载历史
package models

import (
	"time"
)

// History 下载历史表，仅追加；每次成功下载恰好写入一条
type History struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TG           int64     `gorm:"column:tg;index:idx_history_user,priority:1" json:"tg"`
	Source       string    `gorm:"column:source;size:32;index:idx_history_song,priority:1" json:"source"`
	SongID       string    `gorm:"column:song_id;size:255;index:idx_history_song,priority:2" json:"song_id"`
	Name         string    `gorm:"column:name;size:500" json:"name"`
	Artist       string    `gorm:"column:artist;size:500" json:"artist"`
	Album        string    `gorm:"column:album;size:500" json:"album"`
	Quality      Quality   `gorm:"column:quality;size:16" json:"quality"` // 实际送达的音质，≤ 请求音质
	FileID       string    `gorm:"column:file_id;size:255" json:"file_id"` // Telegram file_id，用于免下载重发
	ArchiveMsgID int       `gorm:"column:archive_msg_id" json:"archive_msg_id"`
	DownloadedAt time.Time `gorm:"column:downloaded_at;autoCreateTime;index:idx_history_user,priority:2" json:"downloaded_at"`
}

// TableName 表名
func (History) TableName() string {
	return "history"
}

// Track 转换为歌曲信息
func (h *History) Track() Track {
	return Track{
		Source: h.Source,
		SongID: h.SongID,
		Name:   h.Name,
		Artist: h.Artist,
		Album:  h.Album,
	}
}

// HasFileID 是否有可复用的 file_id
func (h *History) HasFileID() bool {
	return h.FileID != ""
}
