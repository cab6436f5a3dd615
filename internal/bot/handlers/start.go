// Package handlers Bot 消息处理器
package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/config"
)

// Start 处理 /start 命令，支持内联查询的深度链接 start=dl_<source>_<id>
func Start(c tele.Context) error {
	payload := c.Message().Payload
	if strings.HasPrefix(payload, "dl_") {
		parts := strings.SplitN(payload, "_", 3)
		if len(parts) == 3 {
			return performDownload(c, parts[1], parts[2], userQuality(c))
		}
	}

	cfg := config.Get()
	text := fmt.Sprintf(
		"🎵 欢迎使用 %s！\n\n"+
			"直接发送歌名或歌手即可搜索，支持网易云 / 酷我 / QQ音乐。\n\n"+
			"命令列表：\n"+
			"/search 关键词 - 搜索歌曲\n"+
			"/quality - 设置下载音质\n"+
			"/fav - 我的收藏\n"+
			"/history - 下载历史\n"+
			"/top - 排行榜\n"+
			"/help - 使用帮助",
		cfg.BotName)
	return c.Send(text)
}

// Help 处理 /help 命令
func Help(c tele.Context) error {
	text := "📖 使用帮助\n\n" +
		"🔍 搜索：直接发送歌名，或 /search 关键词\n" +
		"🎧 音质：/quality 选择 128k / 320k / flac / flac24bit\n" +
		"所选音质不可用时会自动降级到可用的最高音质\n" +
		"❤️ 收藏：/fav 查看收藏，下载后点击收藏按钮添加\n" +
		"🕐 历史：/history 查看下载历史，可一键重发\n" +
		"📊 榜单：/top 浏览各平台排行榜\n\n" +
		"⚠️ Bot 上传上限为 50MB，过大的无损文件会自动降级"
	return c.Send(text)
}
