// Package handlers 排行榜处理
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/bot/keyboards"
	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/internal/tunehub"
	"github.com/smysle/tunebot-go/pkg/format"
	"github.com/smysle/tunebot-go/pkg/imggen"
	"github.com/smysle/tunebot-go/pkg/logger"
	"github.com/smysle/tunebot-go/pkg/utils"
)

// toplistCacheTTL 榜单数据缓存时长
const toplistCacheTTL = 10 * time.Minute

// Toplists 处理 /top 命令
func Toplists(c tele.Context) error {
	return c.Send("📊 选择平台查看排行榜：", keyboards.Platforms())
}

// showToplistMenu 平台选择菜单（回调）
func showToplistMenu(c tele.Context) error {
	if err := c.Edit("📊 选择平台查看排行榜：", keyboards.Platforms()); err != nil {
		return err
	}
	return c.Respond()
}

// showToplists 某平台的榜单列表（回调）
func showToplists(c tele.Context, source string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf("toplists:%s", source)
	cached, err := utils.CacheGetOrSet(cacheKey, toplistCacheTTL, func() (interface{}, error) {
		return tunehub.GetClient().Toplists(ctx, source)
	})
	if err != nil {
		logger.Warn().Err(err).Str("source", source).Msg("获取榜单失败")
		return c.Respond(&tele.CallbackResponse{Text: "获取榜单失败，请稍后重试"})
	}

	lists := cached.([]tunehub.Toplist)
	if len(lists) == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "该平台暂无榜单"})
	}

	text := fmt.Sprintf("📊 %s 排行榜：", format.Platform(source))
	if err := c.Edit(text, keyboards.Toplists(source, lists)); err != nil {
		return err
	}
	return c.Respond()
}

// showToplistSongs 榜单歌曲（回调），附带榜单图片
func showToplistSongs(c tele.Context, source, listID string) error {
	_ = c.Respond(&tele.CallbackResponse{Text: "加载中..."})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf("toplist:%s:%s", source, listID)
	cached, err := utils.CacheGetOrSet(cacheKey, toplistCacheTTL, func() (interface{}, error) {
		return tunehub.GetClient().ToplistSongs(ctx, source, listID)
	})
	if err != nil {
		logger.Warn().Err(err).Str("source", source).Str("list", listID).Msg("获取榜单歌曲失败")
		return c.Edit("😥 获取榜单歌曲失败，请稍后重试")
	}

	tracks := cached.([]models.Track)
	if len(tracks) == 0 {
		return c.Edit("🈳 榜单暂无歌曲")
	}

	listName := toplistName(ctx, source, listID)
	markup := keyboards.ToplistSongs(source, tracks, 10)

	// 榜单卡片图渲染失败就退回纯文本
	if card := renderToplistCard(listName, source, tracks); card != nil {
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(card)),
			Caption: fmt.Sprintf("📊 %s · %s", format.Platform(source), listName),
		}
		if err := c.Send(photo, markup); err == nil {
			return c.Delete()
		}
	}

	text := fmt.Sprintf("📊 %s · %s\n点击下载：", format.Platform(source), listName)
	return c.Edit(text, markup)
}

// toplistName 查榜单显示名，查不到用 ID 兜底
func toplistName(ctx context.Context, source, listID string) string {
	cacheKey := fmt.Sprintf("toplists:%s", source)
	cached, err := utils.CacheGetOrSet(cacheKey, toplistCacheTTL, func() (interface{}, error) {
		return tunehub.GetClient().Toplists(ctx, source)
	})
	if err == nil {
		for _, l := range cached.([]tunehub.Toplist) {
			if l.ID == listID {
				return l.Name
			}
		}
	}
	return listID
}

// renderToplistCard 渲染榜单图片，失败返回 nil
func renderToplistCard(title, source string, tracks []models.Track) []byte {
	items := make([]imggen.TrackItem, 0, 10)
	for i, t := range tracks {
		if i >= 10 {
			break
		}
		items = append(items, imggen.TrackItem{
			Rank:   i + 1,
			Name:   t.Name,
			Artist: t.Artist,
		})
	}

	card, err := imggen.GenerateToplist(imggen.ToplistConfig{
		Title:       title,
		Platform:    format.Platform(source),
		Items:       items,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		logger.Debug().Err(err).Msg("榜单图片生成失败")
		return nil
	}
	return card
}
