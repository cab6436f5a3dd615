// Package web Web API 服务
package web

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/database"
	"github.com/smysle/tunebot-go/internal/database/repository"
	pkglogger "github.com/smysle/tunebot-go/pkg/logger"
)

// Server Web 服务器
type Server struct {
	app       *fiber.App
	cfg       *config.WebConfig
	startTime time.Time
}

// New 创建 Web 服务器
func New(cfg *config.WebConfig) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// 中间件
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	server := &Server{
		app:       app,
		cfg:       cfg,
		startTime: time.Now(),
	}

	server.registerRoutes()

	return server
}

// registerRoutes 注册路由
func (s *Server) registerRoutes() {
	// 健康检查
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/", s.healthCheck)

	// 详细状态
	s.app.Get("/status", s.detailedStatus)

	// API v1
	v1 := s.app.Group("/api/v1")

	// 统计
	v1.Get("/stats", s.getStats)

	// 历史
	v1.Get("/history/recent", s.getRecentHistory)
}

// Start 启动服务器
func (s *Server) Start() error {
	if !s.cfg.Enabled {
		pkglogger.Info().Msg("【API服务】未启用，跳过...")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	pkglogger.Info().Str("addr", addr).Msg("【API服务】启动中...")

	return s.app.Listen(addr)
}

// Stop 停止服务器
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// healthCheck 健康检查
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	})
}

// StatusResponse 详细状态响应
type StatusResponse struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Uptime   string         `json:"uptime"`
	System   SystemInfo     `json:"system"`
	Database DatabaseStatus `json:"database"`
}

// SystemInfo 系统信息
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     string `json:"mem_alloc"`
}

// DatabaseStatus 数据库状态
type DatabaseStatus struct {
	Connected     bool  `json:"connected"`
	FavoriteCount int64 `json:"favorite_count"`
	HistoryCount  int64 `json:"history_count"`
}

// detailedStatus 详细状态
func (s *Server) detailedStatus(c *fiber.Ctx) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbConnected := false
	var favoriteCount, historyCount int64
	if db := database.GetDB(); db != nil {
		sqlDB, err := db.DB()
		if err == nil && sqlDB.Ping() == nil {
			dbConnected = true
			favoriteCount, _ = repository.NewFavoritesRepository().CountAll()
			historyCount, _ = repository.NewHistoryRepository().CountAll()
		}
	}

	return c.JSON(StatusResponse{
		Status:  "ok",
		Version: "1.0.0",
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		System: SystemInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     fmt.Sprintf("%.2f MB", float64(memStats.Alloc)/1024/1024),
		},
		Database: DatabaseStatus{
			Connected:     dbConnected,
			FavoriteCount: favoriteCount,
			HistoryCount:  historyCount,
		},
	})
}

// StatsResponse 统计响应
type StatsResponse struct {
	TotalFavorites int64 `json:"total_favorites"`
	TotalDownloads int64 `json:"total_downloads"`
}

// getStats 获取统计
func (s *Server) getStats(c *fiber.Ctx) error {
	favorites, err := repository.NewFavoritesRepository().CountAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取统计失败",
		})
	}

	downloads, err := repository.NewHistoryRepository().CountAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取统计失败",
		})
	}

	return c.JSON(StatsResponse{
		TotalFavorites: favorites,
		TotalDownloads: downloads,
	})
}

// HistoryItem 历史条目响应
type HistoryItem struct {
	Source       string `json:"source"`
	SongID       string `json:"song_id"`
	Name         string `json:"name"`
	Artist       string `json:"artist"`
	Quality      string `json:"quality"`
	DownloadedAt string `json:"downloaded_at"`
}

// getRecentHistory 最近下载记录
func (s *Server) getRecentHistory(c *fiber.Ctx) error {
	tgStr := c.Query("tg")
	if tgStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "缺少 tg 参数",
		})
	}

	tg, err := strconv.ParseInt(tgStr, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的 tg 参数",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := repository.NewHistoryRepository().Recent(tg, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询失败",
		})
	}

	items := make([]HistoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, HistoryItem{
			Source:       r.Source,
			SongID:       r.SongID,
			Name:         r.Name,
			Artist:       r.Artist,
			Quality:      string(r.Quality),
			DownloadedAt: r.DownloadedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return c.JSON(fiber.Map{"items": items})
}
