// Package handlers 历史记录处理
package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/bot/keyboards"
	"github.com/smysle/tunebot-go/internal/database/repository"
)

// History 处理 /history 命令
func History(c tele.Context) error {
	return showHistory(c, 1, false)
}

// showHistory 展示下载历史。edit 为真时编辑原消息（翻页回调）
func showHistory(c tele.Context, page int, edit bool) error {
	repo := repository.NewHistoryRepository()
	records, total, err := repo.List(c.Sender().ID, page, keyboards.PageSize)
	if err != nil {
		return c.Send("😥 读取历史失败")
	}

	if total == 0 {
		text := "🈳 还没有下载记录"
		if edit {
			return c.Edit(text)
		}
		return c.Send(text)
	}

	totalPages := keyboards.TotalPages(int(total))
	text := fmt.Sprintf("🕐 下载历史（共 %d 条），点击重发：", total)
	markup := keyboards.History(records, page, totalPages)

	if edit {
		if err := c.Edit(text, markup); err != nil {
			return err
		}
		_ = c.Respond()
		return nil
	}
	return c.Send(text, markup)
}
