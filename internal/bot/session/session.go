// Package session 用户会话状态（内存态，重启即失效）
package session

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database/models"
)

// SearchState 一次搜索的结果快照，供翻页回调使用
type SearchState struct {
	Keyword string
	Tracks  []models.Track
	Page    int
}

// Manager 会话管理器
type Manager struct {
	mu        sync.RWMutex
	qualities map[int64]models.Quality // 用户音质偏好
	searches  *gocache.Cache           // 搜索结果缓存，键为用户 ID
}

var (
	defaultManager *Manager
	once           sync.Once
)

// GetManager 获取全局会话管理器
func GetManager() *Manager {
	once.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// NewManager 创建会话管理器
func NewManager() *Manager {
	return &Manager{
		qualities: make(map[int64]models.Quality),
		searches:  gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Quality 用户的音质偏好，未设置时返回配置默认值
func (m *Manager) Quality(userID int64) models.Quality {
	m.mu.RLock()
	q, ok := m.qualities[userID]
	m.mu.RUnlock()
	if ok {
		return q
	}

	if cfg := config.Get(); cfg != nil {
		if q, ok := models.ParseQuality(cfg.DefaultQuality); ok {
			return q
		}
	}
	return models.Quality320k
}

// SetQuality 设置用户音质偏好
func (m *Manager) SetQuality(userID int64, q models.Quality) {
	m.mu.Lock()
	m.qualities[userID] = q
	m.mu.Unlock()
}

// SaveSearch 暂存搜索结果
func (m *Manager) SaveSearch(userID int64, state *SearchState) {
	m.searches.Set(searchKey(userID), state, gocache.DefaultExpiration)
}

// Search 取回搜索结果，过期或不存在返回 nil
func (m *Manager) Search(userID int64) *SearchState {
	if v, ok := m.searches.Get(searchKey(userID)); ok {
		return v.(*SearchState)
	}
	return nil
}

// ClearSearch 清除搜索结果
func (m *Manager) ClearSearch(userID int64) {
	m.searches.Delete(searchKey(userID))
}

// Flush 清空所有过期缓存（定时任务调用）
func (m *Manager) Flush() {
	m.searches.DeleteExpired()
}

func searchKey(userID int64) string {
	return fmt.Sprintf("search:%d", userID)
}
