// Package tunehub TuneHub API 响应结构与错误类型
package tunehub

import (
	"encoding/json"
	"fmt"

	"github.com/smysle/tunebot-go/internal/database/models"
)

// ErrNotAvailable 请求的音质在该平台没有可用音源。
// 这是正常结果而非故障，由编排层据此决定降级。
var ErrNotAvailable = &NotAvailableError{}

// NotAvailableError 音源不可用
type NotAvailableError struct {
	Reason string
}

func (e *NotAvailableError) Error() string {
	if e.Reason == "" {
		return "该音质没有可用音源"
	}
	return "该音质没有可用音源: " + e.Reason
}

// Is 允许 errors.Is(err, ErrNotAvailable) 判断任意不可用错误
func (e *NotAvailableError) Is(target error) bool {
	_, ok := target.(*NotAvailableError)
	return ok
}

// TransportError 网络层故障（超时、连接失败、上游 5xx）
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("请求 %s 失败: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResolvedAudio 音频解析结果
type ResolvedAudio struct {
	URL            string         // 可下载的真实 URL
	Size           int64          // Content-Length，探测失败时为 0
	Quality        models.Quality // 解析时请求的音质
	SourceSwitched string         // 上游换源提示（X-Source-Switch 响应头）
}

// SongDetail 歌曲元数据
type SongDetail struct {
	models.Track
	PicURL string
	LrcURL string
}

// Toplist 排行榜条目
type Toplist struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	UpdateFrequency string `json:"updateFrequency"`
}

// flexID 上游的 id 字段时而是字符串时而是数字
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string {
	return string(f)
}

// envelope TuneHub 统一响应封装 {code, msg, data}
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// trackPayload 搜索/榜单中的歌曲条目。album 可能缺失，
// id 可能是数字，平台字段名在不同接口间叫 platform 或 source
type trackPayload struct {
	ID       flexID  `json:"id"`
	Name     string  `json:"name"`
	Artist   string  `json:"artist"`
	Album    *string `json:"album"`
	Platform string  `json:"platform"`
	Source   string  `json:"source"`
}

// toTrack 转换为领域模型。fallbackSource 用于单平台接口（响应中不带平台字段）
func (p trackPayload) toTrack(fallbackSource string) models.Track {
	source := p.Platform
	if source == "" {
		source = p.Source
	}
	if source == "" {
		source = fallbackSource
	}

	album := ""
	if p.Album != nil {
		album = *p.Album
	}

	return models.Track{
		Source: source,
		SongID: p.ID.String(),
		Name:   p.Name,
		Artist: p.Artist,
		Album:  album,
	}
}

// songInfoPayload type=info 的响应体
type songInfoPayload struct {
	Name   string  `json:"name"`
	Artist string  `json:"artist"`
	Album  *string `json:"album"`
	Pic    string  `json:"pic"`
	Lrc    string  `json:"lrc"`
}

// resolvePayload type=url 返回 200 时的响应体
type resolvePayload struct {
	URL string `json:"url"`
}
