// Package handlers 内联查询处理
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/tunehub"
	"github.com/smysle/tunebot-go/pkg/format"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// inlineResultLimit 内联查询最多返回的结果数
const inlineResultLimit = 10

// OnInlineQuery 内联查询：在任意会话中搜索歌曲，
// 结果消息带深度链接按钮跳回 Bot 下载
func OnInlineQuery(c tele.Context) error {
	keyword := strings.TrimSpace(c.Query().Text)
	if keyword == "" {
		return c.Answer(&tele.QueryResponse{Results: tele.Results{}, CacheTime: 10})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracks, err := tunehub.GetClient().AggregateSearch(ctx, keyword)
	if err != nil {
		logger.Debug().Err(err).Str("keyword", keyword).Msg("内联搜索失败")
		return c.Answer(&tele.QueryResponse{Results: tele.Results{}, CacheTime: 10})
	}

	botName := config.Get().BotName
	results := make(tele.Results, 0, inlineResultLimit)
	for i, t := range tracks {
		if i >= inlineResultLimit {
			break
		}

		deepLink := fmt.Sprintf("https://t.me/%s?start=dl_%s_%s", botName, t.Source, t.SongID)
		markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{
			{Text: "⏬ 去下载", URL: deepLink},
		}}}

		text := fmt.Sprintf("🎵 %s - %s", t.Name, t.Artist)
		if t.Album != "" {
			text += fmt.Sprintf("\n💿 %s", t.Album)
		}
		text += fmt.Sprintf("\n📍 %s", format.Platform(t.Source))

		result := &tele.ArticleResult{
			Title:       t.Name,
			Description: fmt.Sprintf("%s · %s", t.Artist, format.Platform(t.Source)),
			Text:        text,
		}
		result.SetResultID(uuid.New().String())
		result.ReplyMarkup = markup

		results = append(results, result)
	}

	return c.Answer(&tele.QueryResponse{
		Results:   results,
		CacheTime: 60,
	})
}
