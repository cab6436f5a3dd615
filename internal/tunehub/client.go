// Package tunehub TuneHub 聚合 API 客户端
package tunehub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// Client TuneHub API 客户端。
// 纯粹的无状态翻译层：不做重试与降级，这些策略属于编排层。
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *resty.Client // 跟随重定向，用于普通 API 调用
	noRedirect *resty.Client // 不跟随重定向，用于取 302 Location
	download   *resty.Client // 独立的长超时客户端，用于拉取音频内容
}

var (
	instance *Client
	once     sync.Once
)

// GetClient 获取 TuneHub 客户端单例
func GetClient() *Client {
	once.Do(func() {
		var baseURL, key string
		var timeout time.Duration
		if cfg := config.Get(); cfg != nil {
			baseURL = cfg.API.BaseURL
			key = cfg.API.Key
			timeout = time.Duration(cfg.API.Timeout) * time.Second
		}
		instance = NewClient(baseURL, key, timeout)
	})
	return instance
}

// NewClient 创建新的 TuneHub 客户端
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	newClient := func() *resty.Client {
		c := resty.New()
		c.SetTimeout(timeout)
		c.SetHeader("User-Agent", "TuneBot/1.0 Go")
		if apiKey != "" {
			c.SetHeader("X-API-Key", apiKey)
		}
		return c
	}

	noRedirect := newClient()
	noRedirect.SetRedirectPolicy(resty.NoRedirectPolicy())

	download := resty.New()
	download.SetTimeout(180 * time.Second)

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newClient(),
		noRedirect: noRedirect,
		download:   download,
	}
}

// apiURL 统一入口地址
func (c *Client) apiURL() string {
	return c.baseURL + "/api/"
}

// request 发送 API 请求并解出响应封装
func (c *Client) request(ctx context.Context, op string, params map[string]string) (*envelope, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.apiURL())
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode())}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("解析响应失败: %w", err)}
	}
	return &env, nil
}

// AggregateSearch 聚合搜索。无结果返回空切片而非错误
func (c *Client) AggregateSearch(ctx context.Context, keyword string) ([]models.Track, error) {
	env, err := c.request(ctx, "aggregateSearch", map[string]string{
		"type":    "aggregateSearch",
		"keyword": keyword,
	})
	if err != nil {
		return nil, err
	}
	if env.Code != 200 {
		return nil, nil
	}
	return decodeResults(env.Data, "")
}

// Search 单平台搜索
func (c *Client) Search(ctx context.Context, source, keyword string, limit int) ([]models.Track, error) {
	env, err := c.request(ctx, "search", map[string]string{
		"source":  source,
		"type":    "search",
		"keyword": keyword,
		"limit":   strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}
	if env.Code != 200 {
		return nil, nil
	}
	return decodeResults(env.Data, source)
}

// decodeResults 解出 data.results 歌曲列表
func decodeResults(data json.RawMessage, fallbackSource string) ([]models.Track, error) {
	var payload struct {
		Results []trackPayload `json:"results"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &TransportError{Op: "search", Err: fmt.Errorf("解析搜索结果失败: %w", err)}
	}

	tracks := make([]models.Track, 0, len(payload.Results))
	for _, p := range payload.Results {
		tracks = append(tracks, p.toTrack(fallbackSource))
	}
	return tracks, nil
}

// SongInfo 获取歌曲元数据，不存在返回 nil
func (c *Client) SongInfo(ctx context.Context, source, songID string) (*SongDetail, error) {
	env, err := c.request(ctx, "info", map[string]string{
		"source": source,
		"id":     songID,
		"type":   "info",
	})
	if err != nil {
		return nil, err
	}
	if env.Code != 200 {
		return nil, nil
	}

	var info songInfoPayload
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, &TransportError{Op: "info", Err: fmt.Errorf("解析歌曲信息失败: %w", err)}
	}

	album := ""
	if info.Album != nil {
		album = *info.Album
	}

	return &SongDetail{
		Track: models.Track{
			Source: source,
			SongID: songID,
			Name:   info.Name,
			Artist: info.Artist,
			Album:  album,
		},
		PicURL: info.Pic,
		LrcURL: info.Lrc,
	}, nil
}

// Resolve 将 (歌曲, 音质) 解析为可下载 URL。
// 音源不可用返回 *NotAvailableError（正常结果，驱动降级）；
// 网络故障返回 *TransportError。不在此层做任何重试
func (c *Client) Resolve(ctx context.Context, source, songID string, quality models.Quality) (*ResolvedAudio, error) {
	resp, err := c.noRedirect.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"source": source,
			"id":     songID,
			"type":   "url",
			"br":     string(quality),
		}).
		Get(c.apiURL())
	// NoRedirectPolicy 在上游返回 302 时会产生错误，此时响应头仍然可用
	if err != nil && (resp == nil || resp.StatusCode() != http.StatusFound) {
		return nil, &TransportError{Op: "resolve", Err: err}
	}

	switched := resp.Header().Get("X-Source-Switch")

	switch {
	case resp.StatusCode() == http.StatusFound:
		location := resp.Header().Get("Location")
		if location == "" {
			return nil, &NotAvailableError{Reason: "重定向缺少 Location"}
		}
		return &ResolvedAudio{
			URL:            location,
			Size:           c.contentLength(ctx, location),
			Quality:        quality,
			SourceSwitched: switched,
		}, nil

	case resp.StatusCode() == http.StatusOK:
		// 部分平台直接以 JSON 返回 URL
		var env envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return nil, &TransportError{Op: "resolve", Err: fmt.Errorf("解析响应失败: %w", err)}
		}
		var payload resolvePayload
		if len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &payload)
		}
		if payload.URL == "" {
			reason := env.Msg
			if reason == "" {
				reason = "该品质不可用"
			}
			return nil, &NotAvailableError{Reason: reason}
		}
		return &ResolvedAudio{
			URL:            payload.URL,
			Size:           c.contentLength(ctx, payload.URL),
			Quality:        quality,
			SourceSwitched: switched,
		}, nil

	case resp.StatusCode() >= http.StatusInternalServerError:
		return nil, &TransportError{Op: "resolve", Err: fmt.Errorf("HTTP %d", resp.StatusCode())}

	default:
		// 4xx 视为该音质无音源
		return nil, &NotAvailableError{Reason: fmt.Sprintf("HTTP %d", resp.StatusCode())}
	}
}

// contentLength HEAD 探测文件大小，失败返回 0
func (c *Client) contentLength(ctx context.Context, url string) int64 {
	resp, err := c.httpClient.R().SetContext(ctx).Head(url)
	if err != nil {
		logger.Warn().Err(err).Msg("获取文件大小失败")
		return 0
	}
	size, _ := strconv.ParseInt(resp.Header().Get("Content-Length"), 10, 64)
	return size
}

// Fetch 下载音频内容。传输中断（收到的字节数与 Content-Length 不符）
// 返回错误，调用方丢弃部分数据，不支持断点续传
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req := c.download.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	// 部分音源校验 Referer
	lower := strings.ToLower(url)
	if strings.Contains(lower, "kuwo") {
		req.SetHeader("Referer", "https://www.kuwo.cn/")
	} else if strings.Contains(lower, "kugou") {
		req.SetHeader("Referer", "https://www.kugou.com/")
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{Op: "fetch", Err: fmt.Errorf("HTTP %d", resp.StatusCode())}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Err: err}
	}

	expected, _ := strconv.ParseInt(resp.Header().Get("Content-Length"), 10, 64)
	if expected > 0 && int64(len(data)) != expected {
		return nil, &TransportError{
			Op:  "fetch",
			Err: fmt.Errorf("传输中断: 收到 %d/%d 字节", len(data), expected),
		}
	}

	return data, nil
}

// Cover 获取封面图片，取不到返回 nil
func (c *Client) Cover(ctx context.Context, source, songID string) ([]byte, error) {
	resp, err := c.noRedirect.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"source": source,
			"id":     songID,
			"type":   "pic",
		}).
		Get(c.apiURL())
	if err != nil && (resp == nil || resp.StatusCode() != http.StatusFound) {
		return nil, &TransportError{Op: "pic", Err: err}
	}

	switch resp.StatusCode() {
	case http.StatusFound:
		picURL := resp.Header().Get("Location")
		if picURL == "" {
			return nil, nil
		}
		return c.fetchImage(ctx, picURL)

	case http.StatusOK:
		if strings.Contains(resp.Header().Get("Content-Type"), "image") {
			return resp.Body(), nil
		}
		// 可能是带 URL 的 JSON 响应
		var env envelope
		if json.Unmarshal(resp.Body(), &env) != nil {
			return nil, nil
		}
		var pic struct {
			URL string `json:"url"`
			Pic string `json:"pic"`
		}
		if len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &pic)
		}
		picURL := pic.URL
		if picURL == "" {
			picURL = pic.Pic
		}
		if picURL == "" {
			return nil, nil
		}
		return c.fetchImage(ctx, picURL)
	}

	return nil, nil
}

// fetchImage 下载图片内容
func (c *Client) fetchImage(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &TransportError{Op: "pic", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, nil
	}
	if !strings.Contains(resp.Header().Get("Content-Type"), "image") {
		return nil, nil
	}
	return resp.Body(), nil
}

// Lyrics 获取歌词文本，取不到返回空串
func (c *Client) Lyrics(ctx context.Context, source, songID string) (string, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"source": source,
			"id":     songID,
			"type":   "lrc",
		}).
		Get(c.apiURL())
	if err != nil {
		return "", &TransportError{Op: "lrc", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", nil
	}
	return string(resp.Body()), nil
}

// Toplists 获取平台排行榜列表，顺序与上游一致
func (c *Client) Toplists(ctx context.Context, source string) ([]Toplist, error) {
	env, err := c.request(ctx, "toplists", map[string]string{
		"source": source,
		"type":   "toplists",
	})
	if err != nil {
		return nil, err
	}
	if env.Code != 200 {
		return nil, nil
	}

	var payload struct {
		List []struct {
			ID              flexID `json:"id"`
			Name            string `json:"name"`
			UpdateFrequency string `json:"updateFrequency"`
		} `json:"list"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, &TransportError{Op: "toplists", Err: fmt.Errorf("解析排行榜失败: %w", err)}
	}

	lists := make([]Toplist, 0, len(payload.List))
	for _, l := range payload.List {
		lists = append(lists, Toplist{
			ID:              l.ID.String(),
			Name:            l.Name,
			UpdateFrequency: l.UpdateFrequency,
		})
	}
	return lists, nil
}

// ToplistSongs 获取榜单歌曲，顺序与上游一致
func (c *Client) ToplistSongs(ctx context.Context, source, listID string) ([]models.Track, error) {
	env, err := c.request(ctx, "toplist", map[string]string{
		"source": source,
		"id":     listID,
		"type":   "toplist",
	})
	if err != nil {
		return nil, err
	}
	if env.Code != 200 {
		return nil, nil
	}

	var payload struct {
		List []trackPayload `json:"list"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, &TransportError{Op: "toplist", Err: fmt.Errorf("解析榜单歌曲失败: %w", err)}
	}

	tracks := make([]models.Track, 0, len(payload.List))
	for _, p := range payload.List {
		tracks = append(tracks, p.toTrack(source))
	}
	return tracks, nil
}
