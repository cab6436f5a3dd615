// Package tunehub 客户端测试
package tunehub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smysle/tunebot-go/internal/database/models"
)

// newTestClient 指向测试服务器的客户端
func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, "", 5*time.Second)
}

func TestClient_AggregateSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "aggregateSearch" {
			t.Errorf("type 参数错误: %s", r.URL.Query().Get("type"))
		}
		// id 为数字、album 缺失的条目必须都能解析
		fmt.Fprint(w, `{
			"code": 200,
			"data": {
				"results": [
					{"id": "1001", "name": "七里香", "artist": "周杰伦", "album": "七里香", "platform": "netease"},
					{"id": 2002, "name": "晴天", "artist": "周杰伦", "platform": "qq"}
				]
			}
		}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	tracks, err := client.AggregateSearch(context.Background(), "周杰伦")
	if err != nil {
		t.Fatalf("AggregateSearch() 错误: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("结果数量 = %d, want 2", len(tracks))
	}

	if tracks[0].Source != "netease" || tracks[0].SongID != "1001" || tracks[0].Album != "七里香" {
		t.Errorf("第一条解析错误: %+v", tracks[0])
	}

	// 数字 id 与缺失的 album
	if tracks[1].SongID != "2002" {
		t.Errorf("数字 id 应解析为 %q, 实际 %q", "2002", tracks[1].SongID)
	}
	if tracks[1].Album != "" {
		t.Errorf("缺失的 album 应为空串, 实际 %q", tracks[1].Album)
	}
}

func TestClient_Search_EmptyIsNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": 200, "data": {"results": []}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	tracks, err := client.Search(context.Background(), "kuwo", "不存在的歌", 20)
	if err != nil {
		t.Fatalf("空结果不应返回错误: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("结果应为空, 实际 %d 条", len(tracks))
	}
}

func TestClient_Resolve_Redirect(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	audioURL := server.URL + "/audio/1001.flac"
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("br") != "flac" {
			t.Errorf("br 参数错误: %s", r.URL.Query().Get("br"))
		}
		w.Header().Set("X-Source-Switch", "kuwo")
		w.Header().Set("Location", audioURL)
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/audio/1001.flac", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "12345")
	})

	client := newTestClient(server.URL)
	resolved, err := client.Resolve(context.Background(), "netease", "1001", models.QualityFlac)
	if err != nil {
		t.Fatalf("Resolve() 错误: %v", err)
	}

	if resolved.URL != audioURL {
		t.Errorf("URL = %s, want %s", resolved.URL, audioURL)
	}
	if resolved.Size != 12345 {
		t.Errorf("Size = %d, want 12345", resolved.Size)
	}
	if resolved.Quality != models.QualityFlac {
		t.Errorf("Quality = %s, want flac", resolved.Quality)
	}
	if resolved.SourceSwitched != "kuwo" {
		t.Errorf("SourceSwitched = %s, want kuwo", resolved.SourceSwitched)
	}
}

func TestClient_Resolve_NotAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 但不含 URL，表示该品质无音源
		fmt.Fprint(w, `{"code": 200, "msg": "该品质不可用", "data": {}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Resolve(context.Background(), "netease", "1001", models.QualityFlac24)
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("应返回 NotAvailable, 实际: %v", err)
	}

	var te *TransportError
	if errors.As(err, &te) {
		t.Error("NotAvailable 不应同时是 TransportError")
	}
}

func TestClient_Resolve_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Resolve(context.Background(), "netease", "1001", models.Quality320k)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("5xx 应返回 TransportError, 实际: %v", err)
	}
	if errors.Is(err, ErrNotAvailable) {
		t.Error("TransportError 不应同时是 NotAvailable")
	}
}

func TestClient_Fetch(t *testing.T) {
	payload := []byte("fake-audio-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	data, err := client.Fetch(context.Background(), server.URL+"/audio.mp3")
	if err != nil {
		t.Fatalf("Fetch() 错误: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("下载内容不一致")
	}
}

func TestClient_Fetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), server.URL+"/audio.mp3")

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("非 200 应返回 TransportError, 实际: %v", err)
	}
}

func TestClient_Toplists_OrderPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"code": 200,
			"data": {
				"list": [
					{"id": "19723756", "name": "飙升榜", "updateFrequency": "每天更新"},
					{"id": "3779629", "name": "新歌榜", "updateFrequency": "每天更新"},
					{"id": "2884035", "name": "原创榜", "updateFrequency": "每周四更新"}
				]
			}
		}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	lists, err := client.Toplists(context.Background(), "netease")
	if err != nil {
		t.Fatalf("Toplists() 错误: %v", err)
	}

	expected := []string{"飙升榜", "新歌榜", "原创榜"}
	if len(lists) != len(expected) {
		t.Fatalf("榜单数量 = %d, want %d", len(lists), len(expected))
	}
	for i, name := range expected {
		if lists[i].Name != name {
			t.Errorf("第 %d 个榜单 = %s, want %s（顺序必须与上游一致）", i, lists[i].Name, name)
		}
	}
}

func TestClient_ToplistSongs_FallbackSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 单平台接口的条目不带平台字段
		fmt.Fprint(w, `{
			"code": 200,
			"data": {"list": [{"id": 42, "name": "歌", "artist": "人"}]}
		}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	tracks, err := client.ToplistSongs(context.Background(), "kuwo", "93")
	if err != nil {
		t.Fatalf("ToplistSongs() 错误: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Source != "kuwo" {
		t.Errorf("缺失平台字段时应回填请求平台, 实际: %+v", tracks)
	}
}
