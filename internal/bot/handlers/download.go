// Package handlers 下载处理
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/bot/keyboards"
	"github.com/smysle/tunebot-go/internal/bot/session"
	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/internal/database/repository"
	"github.com/smysle/tunebot-go/internal/service"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// downloadTimeout 单次下载流程的总超时
const downloadTimeout = 5 * time.Minute

// userQuality 用户当前的音质偏好
func userQuality(c tele.Context) models.Quality {
	return session.GetManager().Quality(c.Sender().ID)
}

// performDownload 下载一首歌并发送给用户
func performDownload(c tele.Context, source, songID string, quality models.Quality) error {
	userID := c.Sender().ID
	track := findKnownTrack(userID, source, songID)

	ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
	defer cancel()

	relay := service.NewTelegramRelay(c.Bot())

	// 同一首歌同音质下载过就直接用 file_id 重发，免去重新下载
	historyRepo := repository.NewHistoryRepository()
	if cached, err := historyRepo.FindBySong(source, songID); err == nil &&
		cached != nil && cached.Quality == quality {
		if err := relay.ResendCached(ctx, c.Chat().ID, cached); err == nil {
			entry := &models.History{
				TG:           userID,
				Source:       cached.Source,
				SongID:       cached.SongID,
				Name:         cached.Name,
				Artist:       cached.Artist,
				Album:        cached.Album,
				Quality:      cached.Quality,
				FileID:       cached.FileID,
				ArchiveMsgID: cached.ArchiveMsgID,
			}
			if err := historyRepo.Record(entry); err != nil {
				logger.Error().Err(err).Str("song", cached.Track().Key()).Msg("历史记录写入失败")
			}
			return sendDoneMessage(c, cached.Track())
		}
		// file_id 失效则走完整下载
		logger.Debug().Str("song", source+":"+songID).Msg("file_id 重发失败，转完整下载")
	}

	status, err := c.Bot().Send(c.Chat(), "⏳ 准备下载...")
	if err != nil {
		return err
	}

	svc := service.NewDownloadService(config.Get(), relay)
	entry, err := svc.Download(ctx, &service.DownloadRequest{
		UserID:  userID,
		ChatID:  c.Chat().ID,
		Track:   track,
		Quality: quality,
		OnStage: func(text string) {
			if _, editErr := c.Bot().Edit(status, text); editErr != nil {
				logger.Debug().Err(editErr).Msg("更新进度消息失败")
			}
		},
	})

	switch {
	case err == nil:
		_ = c.Bot().Delete(status)
		return sendDoneMessage(c, entry.Track())

	case errors.Is(err, service.ErrHistoryNotRecorded):
		// 音频已送达，历史缺一条，照常收尾但提示用户
		_ = c.Bot().Delete(status)
		_ = c.Send("⚠️ 歌曲已发送，但本次下载未能写入历史记录")
		return sendDoneMessage(c, entry.Track())

	default:
		var exhausted *service.AllTiersExhaustedError
		if errors.As(err, &exhausted) {
			_, editErr := c.Bot().Edit(status, exhaustedText(exhausted))
			return editErr
		}
		logger.Error().Err(err).Str("song", source+":"+songID).Msg("下载失败")
		_, editErr := c.Bot().Edit(status, "😥 下载失败，请稍后重试")
		return editErr
	}
}

// sendDoneMessage 发送带收藏按钮的完成提示
func sendDoneMessage(c tele.Context, track models.Track) error {
	isFav, _ := repository.NewFavoritesRepository().IsFavorite(c.Sender().ID, track.Source, track.SongID)
	text := fmt.Sprintf("✅ %s - %s", track.Name, track.Artist)
	return c.Send(text, keyboards.FavToggle(track, isFav))
}

// exhaustedText 降级链枯竭时的提示文案
func exhaustedText(e *service.AllTiersExhaustedError) string {
	var b strings.Builder
	b.WriteString("😥 所有音质都无法下载：\n")
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "· %s：%s\n", f.Quality, f.Reason)
	}
	b.WriteString("\n可以换个平台的同名歌曲试试")
	return b.String()
}

// findKnownTrack 从会话搜索结果或收藏里找歌曲元数据，
// 找不到也没关系，下载服务会用 info 接口补全
func findKnownTrack(userID int64, source, songID string) models.Track {
	if state := session.GetManager().Search(userID); state != nil {
		for _, t := range state.Tracks {
			if t.Source == source && t.SongID == songID {
				return t
			}
		}
	}

	favRepo := repository.NewFavoritesRepository()
	if ok, _ := favRepo.IsFavorite(userID, source, songID); ok {
		favs, _, err := favRepo.List(userID, 1, 1000)
		if err == nil {
			for _, f := range favs {
				if f.Source == source && f.SongID == songID {
					return f.Track()
				}
			}
		}
	}

	return models.Track{Source: source, SongID: songID}
}

// resendHistory 按历史记录 ID 重发（回调）
func resendHistory(c tele.Context, historyID uint) error {
	entry, err := repository.NewHistoryRepository().GetByID(historyID)
	if err != nil || entry == nil {
		return c.Respond(&tele.CallbackResponse{Text: "记录不存在"})
	}
	if entry.TG != c.Sender().ID {
		return c.Respond(&tele.CallbackResponse{Text: "只能重发自己的记录"})
	}

	if !entry.HasFileID() {
		// 没有 file_id 的老记录走完整下载
		_ = c.Respond(&tele.CallbackResponse{Text: "正在重新下载..."})
		return performDownload(c, entry.Source, entry.SongID, entry.Quality)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	relay := service.NewTelegramRelay(c.Bot())
	if err := relay.ResendCached(ctx, c.Chat().ID, entry); err != nil {
		logger.Warn().Err(err).Uint("history", historyID).Msg("file_id 重发失败，转完整下载")
		_ = c.Respond(&tele.CallbackResponse{Text: "正在重新下载..."})
		return performDownload(c, entry.Source, entry.SongID, entry.Quality)
	}

	return c.Respond(&tele.CallbackResponse{Text: "已重发 ✅"})
}
