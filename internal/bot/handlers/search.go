// Package handlers 搜索处理
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/bot/keyboards"
	"github.com/smysle/tunebot-go/internal/bot/session"
	"github.com/smysle/tunebot-go/internal/tunehub"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// Search 处理 /search 命令
func Search(c tele.Context) error {
	keyword := strings.TrimSpace(c.Message().Payload)
	if keyword == "" {
		return c.Send("用法：/search 歌名或歌手，例如 /search 周杰伦")
	}
	return doSearch(c, keyword)
}

// OnText 普通文本消息当作搜索关键词
func OnText(c tele.Context) error {
	keyword := strings.TrimSpace(c.Text())
	if keyword == "" || strings.HasPrefix(keyword, "/") {
		return nil
	}
	return doSearch(c, keyword)
}

// doSearch 聚合搜索并展示结果
func doSearch(c tele.Context, keyword string) error {
	status, err := c.Bot().Send(c.Chat(), fmt.Sprintf("🔍 正在搜索「%s」...", keyword))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracks, err := tunehub.GetClient().AggregateSearch(ctx, keyword)
	if err != nil {
		logger.Warn().Err(err).Str("keyword", keyword).Msg("搜索失败")
		_, editErr := c.Bot().Edit(status, "😥 搜索失败，请稍后重试")
		return editErr
	}

	if len(tracks) == 0 {
		_, err := c.Bot().Edit(status, fmt.Sprintf("🈳 没有找到「%s」相关的歌曲", keyword))
		return err
	}

	session.GetManager().SaveSearch(c.Sender().ID, &session.SearchState{
		Keyword: keyword,
		Tracks:  tracks,
		Page:    1,
	})

	text := fmt.Sprintf("🔎 「%s」找到 %d 首，点击下载：", keyword, len(tracks))
	_, err = c.Bot().Edit(status, text, keyboards.SearchResults(tracks, 1))
	return err
}

// searchPage 搜索结果翻页（回调）
func searchPage(c tele.Context, page int) error {
	state := session.GetManager().Search(c.Sender().ID)
	if state == nil {
		return c.Respond(&tele.CallbackResponse{Text: "搜索结果已过期，请重新搜索"})
	}

	state.Page = page
	text := fmt.Sprintf("🔎 「%s」找到 %d 首，点击下载：", state.Keyword, len(state.Tracks))
	if err := c.Edit(text, keyboards.SearchResults(state.Tracks, page)); err != nil {
		return err
	}
	return c.Respond()
}
