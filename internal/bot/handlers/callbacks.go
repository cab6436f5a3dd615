// Package handlers 回调查询分发
package handlers

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/pkg/logger"
)

// OnCallback 分发所有回调查询，data 格式为 action|参数...
func OnCallback(c tele.Context) error {
	data := strings.TrimSpace(c.Callback().Data)
	parts := strings.Split(data, "|")
	action := parts[0]
	args := parts[1:]

	logger.Debug().
		Int64("user", c.Sender().ID).
		Str("data", data).
		Msg("回调查询")

	switch action {
	case "dl":
		if len(args) != 2 {
			return c.Respond()
		}
		_ = c.Respond(&tele.CallbackResponse{Text: "开始下载..."})
		return performDownload(c, args[0], args[1], userQuality(c))

	case "fav":
		if len(args) != 2 {
			return c.Respond()
		}
		return addFavorite(c, args[0], args[1])

	case "unfav":
		if len(args) != 2 {
			return c.Respond()
		}
		fromList := c.Callback().Message != nil &&
			strings.HasPrefix(c.Callback().Message.Text, "❤️ 我的收藏")
		return removeFavorite(c, args[0], args[1], fromList)

	case "lrc":
		if len(args) != 2 {
			return c.Respond()
		}
		return sendLyrics(c, args[0], args[1])

	case "resend":
		if len(args) != 1 {
			return c.Respond()
		}
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return c.Respond()
		}
		return resendHistory(c, uint(id))

	case "setq":
		if len(args) != 1 {
			return c.Respond()
		}
		return setQuality(c, args[0])

	case "spage":
		return pageCallback(c, args, searchPage)

	case "favpage":
		return pageCallback(c, args, func(c tele.Context, page int) error {
			return showFavorites(c, page, true)
		})

	case "histpage":
		return pageCallback(c, args, func(c tele.Context, page int) error {
			return showHistory(c, page, true)
		})

	case "topmenu":
		return showToplistMenu(c)

	case "top":
		if len(args) != 1 {
			return c.Respond()
		}
		return showToplists(c, args[0])

	case "toplist":
		if len(args) != 2 {
			return c.Respond()
		}
		return showToplistSongs(c, args[0], args[1])

	case "noop":
		return c.Respond()

	default:
		logger.Debug().Str("action", action).Msg("未知回调")
		return c.Respond()
	}
}

// pageCallback 解析页码并调用翻页函数
func pageCallback(c tele.Context, args []string, fn func(tele.Context, int) error) error {
	if len(args) != 1 {
		return c.Respond()
	}
	page, err := strconv.Atoi(args[0])
	if err != nil || page < 1 {
		return c.Respond()
	}
	return fn(c, page)
}
