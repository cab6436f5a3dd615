// Package handlers 收藏处理
package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/bot/keyboards"
	"github.com/smysle/tunebot-go/internal/database/repository"
)

// Favorites 处理 /fav 命令
func Favorites(c tele.Context) error {
	return showFavorites(c, 1, false)
}

// showFavorites 展示收藏列表。edit 为真时编辑原消息（翻页回调）
func showFavorites(c tele.Context, page int, edit bool) error {
	repo := repository.NewFavoritesRepository()
	favs, total, err := repo.List(c.Sender().ID, page, keyboards.PageSize)
	if err != nil {
		return c.Send("😥 读取收藏失败")
	}

	if total == 0 {
		text := "🈳 还没有收藏，下载歌曲后点击 ❤️ 收藏按钮试试"
		if edit {
			return c.Edit(text)
		}
		return c.Send(text)
	}

	totalPages := keyboards.TotalPages(int(total))
	text := fmt.Sprintf("❤️ 我的收藏（共 %d 首）", total)
	markup := keyboards.Favorites(favs, page, totalPages)

	if edit {
		if err := c.Edit(text, markup); err != nil {
			return err
		}
		// 回调可能已在上游应答过
		_ = c.Respond()
		return nil
	}
	return c.Send(text, markup)
}

// addFavorite 添加收藏（回调）
func addFavorite(c tele.Context, source, songID string) error {
	track := findKnownTrack(c.Sender().ID, source, songID)
	if track.Name == "" {
		// 会话里找不到就从历史里补元数据
		if entry, err := repository.NewHistoryRepository().FindBySong(source, songID); err == nil && entry != nil {
			track = entry.Track()
		}
	}

	if err := repository.NewFavoritesRepository().Add(c.Sender().ID, track); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "收藏失败"})
	}

	_ = c.Edit(fmt.Sprintf("✅ %s - %s", track.Name, track.Artist), keyboards.FavToggle(track, true))
	return c.Respond(&tele.CallbackResponse{Text: "已收藏 ❤️"})
}

// removeFavorite 取消收藏（回调）。fromList 为真时刷新收藏列表
func removeFavorite(c tele.Context, source, songID string, fromList bool) error {
	track := findKnownTrack(c.Sender().ID, source, songID)

	if err := repository.NewFavoritesRepository().Remove(c.Sender().ID, source, songID); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "操作失败"})
	}

	if fromList {
		_ = c.Respond(&tele.CallbackResponse{Text: "已取消收藏"})
		return showFavorites(c, 1, true)
	}

	_ = c.Edit(fmt.Sprintf("✅ %s - %s", track.Name, track.Artist), keyboards.FavToggle(track, false))
	return c.Respond(&tele.CallbackResponse{Text: "已取消收藏"})
}
