package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database/models"
	"github.com/smysle/tunebot-go/internal/tunehub"
)

// fakeGateway 按音质预设解析结果的假网关
type fakeGateway struct {
	resolve      map[models.Quality]*tunehub.ResolvedAudio
	resolveErr   map[models.Quality]error
	fetchData    []byte
	fetchErr     error
	resolveCalls []models.Quality
	// 前 N 次 Resolve 返回网络错误，之后正常（测试重试用）
	transientFailures int
}

func (g *fakeGateway) SongInfo(ctx context.Context, source, songID string) (*tunehub.SongDetail, error) {
	return nil, errors.New("no info")
}

func (g *fakeGateway) Resolve(ctx context.Context, source, songID string, quality models.Quality) (*tunehub.ResolvedAudio, error) {
	g.resolveCalls = append(g.resolveCalls, quality)
	if g.transientFailures > 0 {
		g.transientFailures--
		return nil, &tunehub.TransportError{Op: "url", Err: errors.New("connection reset")}
	}
	if err, ok := g.resolveErr[quality]; ok {
		return nil, err
	}
	if r, ok := g.resolve[quality]; ok {
		return r, nil
	}
	return nil, &tunehub.NotAvailableError{}
}

func (g *fakeGateway) Fetch(ctx context.Context, url string) ([]byte, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.fetchData, nil
}

func (g *fakeGateway) Cover(ctx context.Context, source, songID string) ([]byte, error) {
	return nil, errors.New("no cover")
}

// fakeRelay 记录投递的假投递器
type fakeRelay struct {
	delivered []*Payload
	err       error
}

func (r *fakeRelay) Deliver(ctx context.Context, p *Payload) (*ArchiveRef, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.delivered = append(r.delivered, p)
	return &ArchiveRef{FileID: "file-abc", ChatMsgID: 1, ArchiveMsgID: 100}, nil
}

// fakeStore 记录写入的假历史仓库
type fakeStore struct {
	records []*models.History
	err     error
}

func (s *fakeStore) Record(entry *models.History) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, entry)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{MaxFileSize: 50 * 1024 * 1024},
	}
}

func newTestService(gw *fakeGateway, relay *fakeRelay, store *fakeStore) *DownloadService {
	return &DownloadService{
		cfg:     testConfig(),
		gateway: gw,
		relay:   relay,
		history: store,
	}
}

func testTrack() models.Track {
	return models.Track{Source: "netease", SongID: "1001", Name: "晴天", Artist: "周杰伦", Album: "叶惠美"}
}

func TestDownload_FallbackToLowerTier(t *testing.T) {
	// flac 无音源，320k 可用：应降级成功
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.Quality320k: {URL: "http://cdn/a.mp3", Size: 1024, Quality: models.Quality320k},
		},
		fetchData: []byte("audio"),
	}
	relay := &fakeRelay{}
	store := &fakeStore{}
	svc := newTestService(gw, relay, store)

	entry, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.QualityFlac,
	})
	if err != nil {
		t.Fatalf("Download() 错误: %v", err)
	}

	if entry.Quality != models.Quality320k {
		t.Errorf("送达音质 = %s, want 320k", entry.Quality)
	}

	wantCalls := []models.Quality{models.QualityFlac, models.Quality320k}
	if len(gw.resolveCalls) != len(wantCalls) {
		t.Fatalf("解析调用 = %v, want %v", gw.resolveCalls, wantCalls)
	}
	for i, q := range wantCalls {
		if gw.resolveCalls[i] != q {
			t.Errorf("第 %d 次解析 = %s, want %s", i, gw.resolveCalls[i], q)
		}
	}

	// 恰好一次投递、一条历史
	if len(relay.delivered) != 1 {
		t.Fatalf("投递次数 = %d, want 1", len(relay.delivered))
	}
	if len(store.records) != 1 {
		t.Fatalf("历史写入次数 = %d, want 1", len(store.records))
	}
	if store.records[0].TG != 42 || store.records[0].FileID != "file-abc" {
		t.Errorf("历史记录内容错误: %+v", store.records[0])
	}

	// 降级说明要出现在投递里
	if !strings.Contains(relay.delivered[0].Downgraded, "320k") {
		t.Errorf("降级说明缺失: %q", relay.delivered[0].Downgraded)
	}
}

func TestDownload_AllTiersExhausted(t *testing.T) {
	// 128k 是最低档，失败后没有退路
	gw := &fakeGateway{}
	relay := &fakeRelay{}
	store := &fakeStore{}
	svc := newTestService(gw, relay, store)

	_, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality128k,
	})

	var exhausted *AllTiersExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("应返回 AllTiersExhaustedError, 实际: %v", err)
	}
	if len(exhausted.Failures) != 1 {
		t.Fatalf("失败层级数 = %d, want 1", len(exhausted.Failures))
	}
	if exhausted.Failures[0].Quality != models.Quality128k {
		t.Errorf("失败层级 = %s, want 128k", exhausted.Failures[0].Quality)
	}

	// 彻底失败时不得有任何投递与写入
	if len(relay.delivered) != 0 {
		t.Errorf("不应有投递, 实际 %d 次", len(relay.delivered))
	}
	if len(store.records) != 0 {
		t.Errorf("不应写入历史, 实际 %d 条", len(store.records))
	}
}

func TestDownload_ExhaustedCollectsAllReasons(t *testing.T) {
	// flac24bit 起步，四档全挂，每档原因都要在错误里
	gw := &fakeGateway{}
	svc := newTestService(gw, &fakeRelay{}, &fakeStore{})

	_, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.QualityFlac24,
	})

	var exhausted *AllTiersExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("应返回 AllTiersExhaustedError, 实际: %v", err)
	}
	if len(exhausted.Failures) != 4 {
		t.Fatalf("失败层级数 = %d, want 4", len(exhausted.Failures))
	}
	want := []models.Quality{models.QualityFlac24, models.QualityFlac, models.Quality320k, models.Quality128k}
	for i, q := range want {
		if exhausted.Failures[i].Quality != q {
			t.Errorf("第 %d 个失败层级 = %s, want %s", i, exhausted.Failures[i].Quality, q)
		}
	}
}

func TestDownload_TransportRetryOnce(t *testing.T) {
	// 第一次解析网络错误，重试后成功：同一层级内解决，不降级
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.Quality320k: {URL: "http://cdn/a.mp3", Size: 1024, Quality: models.Quality320k},
		},
		fetchData:         []byte("audio"),
		transientFailures: 1,
	}
	relay := &fakeRelay{}
	store := &fakeStore{}
	svc := newTestService(gw, relay, store)

	entry, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality320k,
	})
	if err != nil {
		t.Fatalf("Download() 错误: %v", err)
	}
	if entry.Quality != models.Quality320k {
		t.Errorf("送达音质 = %s, want 320k（重试成功不应降级）", entry.Quality)
	}
	if len(gw.resolveCalls) != 2 {
		t.Errorf("解析调用次数 = %d, want 2（失败 + 重试）", len(gw.resolveCalls))
	}
}

func TestDownload_OversizeDegrades(t *testing.T) {
	// flac 超过 50MB，320k 合规：应跳过 flac 下载直接降级
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.QualityFlac: {URL: "http://cdn/a.flac", Size: 80 * 1024 * 1024, Quality: models.QualityFlac},
			models.Quality320k: {URL: "http://cdn/a.mp3", Size: 8 * 1024 * 1024, Quality: models.Quality320k},
		},
		fetchData: []byte("audio"),
	}
	relay := &fakeRelay{}
	store := &fakeStore{}
	svc := newTestService(gw, relay, store)

	entry, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.QualityFlac,
	})
	if err != nil {
		t.Fatalf("Download() 错误: %v", err)
	}
	if entry.Quality != models.Quality320k {
		t.Errorf("送达音质 = %s, want 320k", entry.Quality)
	}
}

func TestDownload_OversizeEveryTierExhausts(t *testing.T) {
	// 每一档都超限：不下载、不投递，逐档记失败原因后枯竭
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.QualityFlac: {URL: "http://cdn/a.flac", Size: 90 * 1024 * 1024, Quality: models.QualityFlac},
			models.Quality320k: {URL: "http://cdn/a.mp3", Size: 70 * 1024 * 1024, Quality: models.Quality320k},
			models.Quality128k: {URL: "http://cdn/b.mp3", Size: 60 * 1024 * 1024, Quality: models.Quality128k},
		},
		fetchData: []byte("audio"),
	}
	relay := &fakeRelay{}
	store := &fakeStore{}
	svc := newTestService(gw, relay, store)

	_, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.QualityFlac,
	})

	var exhausted *AllTiersExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("应返回 AllTiersExhaustedError, 实际: %v", err)
	}
	if len(exhausted.Failures) != 3 {
		t.Fatalf("失败层级数 = %d, want 3", len(exhausted.Failures))
	}
	for _, f := range exhausted.Failures {
		if !strings.Contains(f.Reason, "文件过大") {
			t.Errorf("%s 的失败原因应为超限, 实际 %q", f.Quality, f.Reason)
		}
	}
	if len(relay.delivered) != 0 {
		t.Errorf("超限文件不应投递, 实际 %d 次", len(relay.delivered))
	}
	if len(store.records) != 0 {
		t.Errorf("不应写入历史, 实际 %d 条", len(store.records))
	}
}

func TestNewDownloadService_UsesGivenConfig(t *testing.T) {
	cfg := testConfig()
	svc := NewDownloadService(cfg, &fakeRelay{})

	if svc.cfg != cfg {
		t.Error("编排服务应持有传入的配置实例")
	}
}

func TestDownload_DeliveryFailureDegrades(t *testing.T) {
	// 投递失败视为该层级失败；这里只有一档，最终枯竭
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.Quality128k: {URL: "http://cdn/a.mp3", Size: 1024, Quality: models.Quality128k},
		},
		fetchData: []byte("audio"),
	}
	relay := &fakeRelay{err: &DeliveryError{Stage: "send", Err: errors.New("bad request")}}
	store := &fakeStore{}
	svc := newTestService(gw, relay, store)

	_, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality128k,
	})

	var exhausted *AllTiersExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("应返回 AllTiersExhaustedError, 实际: %v", err)
	}
	if len(store.records) != 0 {
		t.Errorf("投递失败不应写入历史, 实际 %d 条", len(store.records))
	}
}

func TestDownload_FetchFailureDegrades(t *testing.T) {
	// 传输中断丢弃半成品并降级
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.Quality320k: {URL: "http://cdn/a.mp3", Size: 1024, Quality: models.Quality320k},
			models.Quality128k: {URL: "http://cdn/b.mp3", Size: 512, Quality: models.Quality128k},
		},
		fetchErr: &tunehub.TransportError{Op: "download", Err: errors.New("传输中断")},
	}
	relay := &fakeRelay{}
	store := &fakeStore{}
	svc := newTestService(gw, relay, store)

	_, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality320k,
	})

	var exhausted *AllTiersExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("应返回 AllTiersExhaustedError, 实际: %v", err)
	}
	if len(relay.delivered) != 0 {
		t.Errorf("中断的数据不应投递, 实际 %d 次", len(relay.delivered))
	}
}

func TestDownload_HistoryWriteFailure(t *testing.T) {
	// 音频已送达但历史写入失败：返回记录与 ErrHistoryNotRecorded，不得重复投递
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.Quality320k: {URL: "http://cdn/a.mp3", Size: 1024, Quality: models.Quality320k},
		},
		fetchData: []byte("audio"),
	}
	relay := &fakeRelay{}
	store := &fakeStore{err: fmt.Errorf("database is locked")}
	svc := newTestService(gw, relay, store)

	entry, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality320k,
	})
	if !errors.Is(err, ErrHistoryNotRecorded) {
		t.Fatalf("应返回 ErrHistoryNotRecorded, 实际: %v", err)
	}
	if entry == nil {
		t.Fatal("音频已送达，应返回记录内容")
	}
	if len(relay.delivered) != 1 {
		t.Errorf("投递次数 = %d, want 1（不得因写入失败重试投递）", len(relay.delivered))
	}
}

func TestDownload_NeverUpgrades(t *testing.T) {
	// 请求 320k 时绝不能尝试 flac / flac24bit
	gw := &fakeGateway{}
	svc := newTestService(gw, &fakeRelay{}, &fakeStore{})

	svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality320k,
	})

	for _, q := range gw.resolveCalls {
		if q.Rank() > models.Quality320k.Rank() {
			t.Errorf("不应尝试高于请求音质的层级: %s", q)
		}
	}
}

func TestDownload_InvalidQuality(t *testing.T) {
	svc := newTestService(&fakeGateway{}, &fakeRelay{}, &fakeStore{})

	_, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality("ultra"),
	})
	if err == nil {
		t.Fatal("无效音质应返回错误")
	}
}

func TestDownload_ProgressStages(t *testing.T) {
	gw := &fakeGateway{
		resolve: map[models.Quality]*tunehub.ResolvedAudio{
			models.Quality320k: {URL: "http://cdn/a.mp3", Size: 1024, Quality: models.Quality320k},
		},
		fetchData: []byte("audio"),
	}
	svc := newTestService(gw, &fakeRelay{}, &fakeStore{})

	var stages []string
	_, err := svc.Download(context.Background(), &DownloadRequest{
		UserID: 42, ChatID: 42, Track: testTrack(), Quality: models.Quality320k,
		OnStage: func(text string) { stages = append(stages, text) },
	})
	if err != nil {
		t.Fatalf("Download() 错误: %v", err)
	}
	if len(stages) < 3 {
		t.Errorf("进度通知次数 = %d, want >= 3（解析/下载/发送）", len(stages))
	}
}
