// Package service 业务服务 - Telegram 投递
package service

import (
	"bytes"
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/pkg/format"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// DeliveryError 投递失败（发送给用户或归档频道失败）。
// 编排层视其为当前音质层级失败，继续降级。
type DeliveryError struct {
	Stage string // send / archive
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("投递失败（%s）: %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Payload 待投递的音频
type Payload struct {
	ChatID     int64
	Track      models.Track
	Quality    models.Quality // 实际送达的音质
	Data       []byte
	Cover      []byte // 封面缩略图，可为空
	Downgraded string // 降级说明，未降级为空
}

// ArchiveRef 投递结果
type ArchiveRef struct {
	FileID       string // Telegram file_id，可复用
	ChatMsgID    int    // 发给用户的消息 ID
	ArchiveMsgID int    // 归档频道内的消息 ID，未配置归档时为 0
}

// TelegramRelay 通过 Bot API 发送音频并同步归档
type TelegramRelay struct {
	bot *tele.Bot
	cfg *config.Config
}

// NewTelegramRelay 创建投递器
func NewTelegramRelay(bot *tele.Bot) *TelegramRelay {
	return &TelegramRelay{
		bot: bot,
		cfg: config.Get(),
	}
}

// Deliver 将音频发给用户，并复制一份到归档频道。
// 归档频道已配置时，归档失败同样算投递失败。
func (r *TelegramRelay) Deliver(ctx context.Context, p *Payload) (*ArchiveRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DeliveryError{Stage: "send", Err: err}
	}

	track := p.Track
	fileName := fmt.Sprintf("%s - %s%s", track.Artist, track.Name, p.Quality.FileExt())

	audio := &tele.Audio{
		File:      tele.FromReader(bytes.NewReader(p.Data)),
		Title:     track.Name,
		Performer: track.Artist,
		FileName:  fileName,
		Caption: format.SongCaption(track.Name, track.Artist, track.Album,
			string(p.Quality), int64(len(p.Data)), track.Source, p.Downgraded),
	}
	if len(p.Cover) > 0 {
		audio.Thumbnail = &tele.Photo{File: tele.FromReader(bytes.NewReader(p.Cover))}
	}

	msg, err := r.bot.Send(&tele.Chat{ID: p.ChatID}, audio)
	if err != nil {
		return nil, &DeliveryError{Stage: "send", Err: err}
	}

	fileID := ""
	if msg.Audio != nil {
		fileID = msg.Audio.FileID
	}

	ref := &ArchiveRef{FileID: fileID, ChatMsgID: msg.ID}

	if r.cfg.ArchiveChannelID != 0 {
		archiveMsgID, err := r.archive(fileID, track, p.Quality)
		if err != nil {
			return nil, &DeliveryError{Stage: "archive", Err: err}
		}
		ref.ArchiveMsgID = archiveMsgID
	}

	return ref, nil
}

// ResendCached 用历史记录中的 file_id 重发，免重新下载
func (r *TelegramRelay) ResendCached(ctx context.Context, chatID int64, entry *models.History) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Stage: "send", Err: err}
	}

	track := entry.Track()
	audio := &tele.Audio{
		File:      tele.File{FileID: entry.FileID},
		Title:     track.Name,
		Performer: track.Artist,
		Caption: format.SongCaption(track.Name, track.Artist, track.Album,
			string(entry.Quality), 0, track.Source, ""),
	}

	if _, err := r.bot.Send(&tele.Chat{ID: chatID}, audio); err != nil {
		return &DeliveryError{Stage: "send", Err: err}
	}
	return nil
}

// archive 把已上传的音频按 file_id 复制到归档频道，caption 附带检索标签
func (r *TelegramRelay) archive(fileID string, track models.Track, quality models.Quality) (int, error) {
	caption := format.SongCaption(track.Name, track.Artist, track.Album,
		string(quality), 0, track.Source, "") +
		"\n\n" + format.Hashtags(track.Name, track.Artist, track.Album, track.Source)

	audio := &tele.Audio{
		File:      tele.File{FileID: fileID},
		Title:     track.Name,
		Performer: track.Artist,
		Caption:   caption,
	}

	msg, err := r.bot.Send(&tele.Chat{ID: r.cfg.ArchiveChannelID}, audio)
	if err != nil {
		logger.Error().Err(err).Str("song", track.Key()).Msg("归档失败")
		return 0, err
	}
	return msg.ID, nil
}
