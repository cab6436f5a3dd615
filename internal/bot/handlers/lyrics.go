// Package handlers 歌词处理
package handlers

import (
	"context"
	"regexp"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/tunehub"
	"github.com/smysle/tunebot-go/pkg/format"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// lrcTimeTag LRC 时间标签 [mm:ss.xx]
var lrcTimeTag = regexp.MustCompile(`\[\d{1,2}:\d{1,2}(?:\.\d{1,3})?\]`)

// sendLyrics 发送歌词（回调）
func sendLyrics(c tele.Context, source, songID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	lrc, err := tunehub.GetClient().Lyrics(ctx, source, songID)
	if err != nil {
		logger.Debug().Err(err).Str("song", source+":"+songID).Msg("获取歌词失败")
		return c.Respond(&tele.CallbackResponse{Text: "获取歌词失败"})
	}

	text := stripLRCTags(lrc)
	if text == "" {
		return c.Respond(&tele.CallbackResponse{Text: "该歌曲没有歌词"})
	}

	// Telegram 单条消息上限 4096 字符
	if runes := []rune(text); len(runes) > 4000 {
		text = format.Truncate(text, 4000) + "\n\n（歌词过长，已截断）"
	}

	_ = c.Respond()
	return c.Send("📄 " + text)
}

// stripLRCTags 去掉 LRC 时间标签，留下纯文本歌词
func stripLRCTags(lrc string) string {
	var lines []string
	for _, line := range strings.Split(lrc, "\n") {
		line = strings.TrimSpace(lrcTimeTag.ReplaceAllString(line, ""))
		// 元信息行（[ti:] [ar:] 等）整行跳过
		if line == "" || (strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")) {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
