// Package keyboards 内联键盘构建
package keyboards

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/internal/tunehub"
	"github.com/smysle/tunebot-go/pkg/format"
)

// PageSize 每页条目数
const PageSize = 8

// btn 构建回调按钮，data 各段用 | 拼接
func btn(text string, parts ...string) tele.InlineButton {
	data := ""
	for i, p := range parts {
		if i > 0 {
			data += "|"
		}
		data += p
	}
	return tele.InlineButton{Text: text, Data: data}
}

// SearchResults 搜索结果键盘：每行一首歌，底部翻页
func SearchResults(tracks []models.Track, page int) *tele.ReplyMarkup {
	start, end, totalPages := pageBounds(len(tracks), page)

	var rows [][]tele.InlineButton
	for _, t := range tracks[start:end] {
		label := fmt.Sprintf("%s %s", platformEmoji(t.Source), format.ButtonLabel(t.Name, t.Artist, 18, 12))
		rows = append(rows, []tele.InlineButton{btn(label, "dl", t.Source, t.SongID)})
	}

	if row := pageRow("spage", page, totalPages); row != nil {
		rows = append(rows, row)
	}

	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// Qualities 音质选择键盘，当前选中项加标记
func Qualities(current models.Quality) *tele.ReplyMarkup {
	var row []tele.InlineButton
	for _, q := range models.AllQualities() {
		label := string(q)
		if q == current {
			label = "✅ " + label
		}
		row = append(row, btn(label, "setq", string(q)))
	}
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{row}}
}

// Favorites 收藏列表键盘：每行一首歌，下载与取消收藏并排
func Favorites(favorites []models.Favorite, page, totalPages int) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	for _, f := range favorites {
		rows = append(rows, []tele.InlineButton{
			btn("⏬ "+format.ButtonLabel(f.Name, f.Artist, 14, 10), "dl", f.Source, f.SongID),
			btn("💔", "unfav", f.Source, f.SongID),
		})
	}

	if row := pageRow("favpage", page, totalPages); row != nil {
		rows = append(rows, row)
	}

	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// History 历史列表键盘：每条记录一个重发按钮
func History(records []models.History, page, totalPages int) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	for _, h := range records {
		label := fmt.Sprintf("🔁 %s (%s)", format.ButtonLabel(h.Name, h.Artist, 14, 10), h.Quality)
		rows = append(rows, []tele.InlineButton{btn(label, "resend", fmt.Sprintf("%d", h.ID))})
	}

	if row := pageRow("histpage", page, totalPages); row != nil {
		rows = append(rows, row)
	}

	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// Platforms 平台选择键盘（排行榜入口）
func Platforms() *tele.ReplyMarkup {
	var row []tele.InlineButton
	for _, code := range format.PlatformCodes() {
		row = append(row, btn(format.Platform(code), "top", code))
	}
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{row}}
}

// Toplists 某平台的榜单键盘，每行两个
func Toplists(source string, lists []tunehub.Toplist) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	var row []tele.InlineButton
	for _, l := range lists {
		row = append(row, btn(l.Name, "toplist", source, l.ID))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tele.InlineButton{btn("« 返回", "topmenu")})
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// ToplistSongs 榜单歌曲键盘
func ToplistSongs(source string, tracks []models.Track, limit int) *tele.ReplyMarkup {
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}

	var rows [][]tele.InlineButton
	for _, t := range tracks {
		rows = append(rows, []tele.InlineButton{
			btn("⏬ "+format.ButtonLabel(t.Name, t.Artist, 18, 12), "dl", t.Source, t.SongID),
		})
	}
	rows = append(rows, []tele.InlineButton{btn("« 返回", "top", source)})
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// FavToggle 下载完成后的收藏 / 歌词按钮
func FavToggle(track models.Track, isFavorite bool) *tele.ReplyMarkup {
	var fav tele.InlineButton
	if isFavorite {
		fav = btn("💔 取消收藏", "unfav", track.Source, track.SongID)
	} else {
		fav = btn("❤️ 收藏", "fav", track.Source, track.SongID)
	}
	lrc := btn("📄 歌词", "lrc", track.Source, track.SongID)
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{fav, lrc}}}
}

// pageRow 翻页按钮行，单页时返回 nil
func pageRow(action string, page, totalPages int) []tele.InlineButton {
	if totalPages <= 1 {
		return nil
	}

	var row []tele.InlineButton
	if page > 1 {
		row = append(row, btn("« 上一页", action, fmt.Sprintf("%d", page-1)))
	}
	row = append(row, tele.InlineButton{
		Text: fmt.Sprintf("%d/%d", page, totalPages),
		Data: "noop",
	})
	if page < totalPages {
		row = append(row, btn("下一页 »", action, fmt.Sprintf("%d", page+1)))
	}
	return row
}

// pageBounds 计算分页切片区间
func pageBounds(total, page int) (start, end, totalPages int) {
	totalPages = (total + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start = (page - 1) * PageSize
	end = start + PageSize
	if end > total {
		end = total
	}
	return start, end, totalPages
}

// TotalPages 对外暴露的页数计算
func TotalPages(total int) int {
	pages := (total + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	return pages
}

func platformEmoji(source string) string {
	switch source {
	case "netease":
		return "🎵"
	case "kuwo":
		return "🎶"
	case "qq":
		return "🎧"
	default:
		return "🎼"
	}
}
