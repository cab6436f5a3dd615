// Package handlers 音质设置处理
package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/bot/keyboards"
	"github.com/smysle/tunebot-go/internal/bot/session"
	"github.com/smysle/tunebot-go/internal/database/models"
)

// QualitySettings 处理 /quality 命令
func QualitySettings(c tele.Context) error {
	current := userQuality(c)
	text := fmt.Sprintf(
		"🎧 当前音质：%s\n\n"+
			"选择下载音质（不可用时自动降级）：\n"+
			"· 128k / 320k - MP3\n"+
			"· flac - 无损\n"+
			"· flac24bit - Hi-Res 无损，仅主动选择时使用",
		current)
	return c.Send(text, keyboards.Qualities(current))
}

// setQuality 设置音质偏好（回调）
func setQuality(c tele.Context, value string) error {
	q, ok := models.ParseQuality(value)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "无效的音质"})
	}

	session.GetManager().SetQuality(c.Sender().ID, q)

	text := fmt.Sprintf("🎧 当前音质：%s", q)
	_ = c.Edit(text, keyboards.Qualities(q))
	return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("已设置为 %s", q)})
}
