// Package models 数据模型 - 歌曲
package models

// Track 歌曲信息（来自 TuneHub API，获取后不再修改）
type Track struct {
	Source string `json:"source"` // 平台代码：netease / kuwo / qq
	SongID string `json:"song_id"`
	Name   string `json:"name"`
	Artist string `json:"artist"` // 多位歌手以分隔符连接的显示串
	Album  string `json:"album,omitempty"`
}

// Key 歌曲的跨平台唯一标识
func (t Track) Key() string {
	return t.Source + ":" + t.SongID
}
