// Package service 业务服务 - 下载编排
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/internal/database/repository"
	"github.com/smysle/tunebot-go/internal/tunehub"
	"github.com/smysle/tunebot-go/pkg/format"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// ErrHistoryNotRecorded 音频已成功送达，但历史记录写入失败。
// 调用方不得重试投递，只能提示用户本次下载未入历史。
var ErrHistoryNotRecorded = errors.New("历史记录写入失败")

// TierFailure 单个音质层级的失败原因
type TierFailure struct {
	Quality models.Quality
	Reason  string
}

// AllTiersExhaustedError 降级链全部尝试失败
type AllTiersExhaustedError struct {
	Track    models.Track
	Failures []TierFailure
}

func (e *AllTiersExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Quality, f.Reason))
	}
	return fmt.Sprintf("%s 所有音质均不可用 [%s]", e.Track.Key(), strings.Join(parts, "; "))
}

// Gateway 编排层需要的上游能力
type Gateway interface {
	SongInfo(ctx context.Context, source, songID string) (*tunehub.SongDetail, error)
	Resolve(ctx context.Context, source, songID string, quality models.Quality) (*tunehub.ResolvedAudio, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
	Cover(ctx context.Context, source, songID string) ([]byte, error)
}

// Deliverer 投递能力
type Deliverer interface {
	Deliver(ctx context.Context, p *Payload) (*ArchiveRef, error)
}

// HistoryRecorder 历史写入能力
type HistoryRecorder interface {
	Record(entry *models.History) error
}

// DownloadRequest 一次下载请求
type DownloadRequest struct {
	UserID  int64
	ChatID  int64
	Track   models.Track
	Quality models.Quality    // 请求音质，降级链从此开始
	OnStage func(text string) // 进度通知，可为 nil
}

// DownloadService 下载编排：解析 -> 下载 -> 投递 -> 记录，
// 沿降级链逐级尝试，任何层级的失败都只影响该层级
type DownloadService struct {
	cfg     *config.Config
	gateway Gateway
	relay   Deliverer
	history HistoryRecorder
}

// NewDownloadService 创建下载编排服务
func NewDownloadService(cfg *config.Config, relay Deliverer) *DownloadService {
	return &DownloadService{
		cfg:     cfg,
		gateway: tunehub.GetClient(),
		relay:   relay,
		history: repository.NewHistoryRepository(),
	}
}

// Download 执行一次下载。成功时恰好写入一条历史记录并返回；
// 全部层级失败返回 *AllTiersExhaustedError，且不产生任何投递与写入。
func (s *DownloadService) Download(ctx context.Context, req *DownloadRequest) (*models.History, error) {
	ladder := req.Quality.FallbackLadder()
	if ladder == nil {
		return nil, fmt.Errorf("无效音质: %s", req.Quality)
	}

	track := req.Track

	// 元数据补全，失败不致命
	if detail, err := s.gateway.SongInfo(ctx, track.Source, track.SongID); err == nil && detail != nil {
		if track.Name == "" {
			track.Name = detail.Name
		}
		if track.Artist == "" {
			track.Artist = detail.Artist
		}
		if track.Album == "" {
			track.Album = detail.Album
		}
	}

	var failures []TierFailure

	for _, tier := range ladder {
		entry, reason := s.tryTier(ctx, req, track, tier)
		if entry != nil {
			// reason 只可能是 nil 或 ErrHistoryNotRecorded，音频均已送达
			if len(failures) > 0 {
				logger.Info().
					Str("song", track.Key()).
					Str("requested", string(req.Quality)).
					Str("delivered", string(tier)).
					Msg("降级成功")
			}
			return entry, reason
		}
		if errors.Is(reason, context.Canceled) || errors.Is(reason, context.DeadlineExceeded) {
			return nil, reason
		}

		failures = append(failures, TierFailure{Quality: tier, Reason: reason.Error()})
		logger.Warn().
			Str("song", track.Key()).
			Str("quality", string(tier)).
			Err(reason).
			Msg("该音质不可用，尝试降级")
	}

	return nil, &AllTiersExhaustedError{Track: track, Failures: failures}
}

// tryTier 尝试单个音质层级。返回 (记录, nil) 或 (nil, 失败原因)。
// 历史写入失败是唯一的例外：音频已送达，返回记录与 ErrHistoryNotRecorded。
func (s *DownloadService) tryTier(ctx context.Context, req *DownloadRequest, track models.Track, tier models.Quality) (*models.History, error) {
	s.notify(req, fmt.Sprintf("🔍 正在解析 %s 音质...", tier))

	resolved, err := s.resolveWithRetry(ctx, track, tier)
	if err != nil {
		return nil, err
	}

	// HEAD 探测到超限就不必下载了；未知大小（0）放行，下载后复查
	if !s.fitsLimit(resolved.Size) {
		return nil, fmt.Errorf("文件过大（%s，上限 %s）",
			format.FileSize(resolved.Size), format.FileSize(s.cfg.Upload.MaxFileSize))
	}

	s.notify(req, fmt.Sprintf("⏬ 正在下载 %s - %s (%s)...", track.Name, track.Artist, tier))

	data, err := s.gateway.Fetch(ctx, resolved.URL)
	if err != nil {
		// 传输中断的半成品直接丢弃，继续降级
		return nil, err
	}

	if !s.fitsLimit(int64(len(data))) {
		return nil, fmt.Errorf("文件过大（%s，上限 %s）",
			format.FileSize(int64(len(data))), format.FileSize(s.cfg.Upload.MaxFileSize))
	}

	cover, err := s.gateway.Cover(ctx, track.Source, track.SongID)
	if err != nil {
		cover = nil // 封面拿不到不影响投递
	}

	downgraded := ""
	if tier != req.Quality {
		downgraded = fmt.Sprintf("%s 不可用，已降级为 %s", req.Quality, tier)
	}

	s.notify(req, "⏫ 正在发送...")

	ref, err := s.relay.Deliver(ctx, &Payload{
		ChatID:     req.ChatID,
		Track:      track,
		Quality:    tier,
		Data:       data,
		Cover:      cover,
		Downgraded: downgraded,
	})
	if err != nil {
		return nil, err
	}

	entry := &models.History{
		TG:           req.UserID,
		Source:       track.Source,
		SongID:       track.SongID,
		Name:         track.Name,
		Artist:       track.Artist,
		Album:        track.Album,
		Quality:      tier,
		FileID:       ref.FileID,
		ArchiveMsgID: ref.ArchiveMsgID,
	}

	if err := s.history.Record(entry); err != nil {
		logger.Error().Err(err).Str("song", track.Key()).Msg("历史记录写入失败")
		return entry, ErrHistoryNotRecorded
	}

	return entry, nil
}

// resolveWithRetry 解析音频地址。网络故障重试一次，音源不可用不重试
func (s *DownloadService) resolveWithRetry(ctx context.Context, track models.Track, tier models.Quality) (*tunehub.ResolvedAudio, error) {
	resolved, err := s.gateway.Resolve(ctx, track.Source, track.SongID, tier)
	if err == nil {
		return resolved, nil
	}

	var te *tunehub.TransportError
	if !errors.As(err, &te) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logger.Debug().Err(err).Str("song", track.Key()).Str("quality", string(tier)).Msg("解析失败，重试一次")
	return s.gateway.Resolve(ctx, track.Source, track.SongID, tier)
}

// fitsLimit 是否在 Bot API 上传大小限制内
func (s *DownloadService) fitsLimit(size int64) bool {
	return size <= s.cfg.Upload.MaxFileSize
}

func (s *DownloadService) notify(req *DownloadRequest, text string) {
	if req.OnStage != nil {
		req.OnStage(text)
	}
}
