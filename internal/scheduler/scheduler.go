// Package scheduler 定时任务调度
package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/smysle/tunebot-go/internal/bot/session"
	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/internal/service"
	"github.com/smysle/tunebot-go/pkg/logger"
	"github.com/smysle/tunebot-go/pkg/utils"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	cron *gocron.Scheduler
	cfg  *config.Config
}

var instance *Scheduler

// New 创建调度器
func New(cfg *config.Config) *Scheduler {
	loc, _ := time.LoadLocation("Asia/Shanghai")
	s := gocron.NewScheduler(loc)
	s.SetMaxConcurrentJobs(2, gocron.RescheduleMode)

	instance = &Scheduler{
		cron: s,
		cfg:  cfg,
	}

	return instance
}

// Get 获取调度器实例
func Get() *Scheduler {
	return instance
}

// Start 启动调度器
func (s *Scheduler) Start() {
	logger.Info().Msg("启动定时任务调度器")

	s.registerJobs()

	s.cron.StartAsync()
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	logger.Info().Msg("停止定时任务调度器")
	s.cron.Stop()
}

// registerJobs 注册所有定时任务
func (s *Scheduler) registerJobs() {
	cfg := s.cfg.Scheduler

	// 数据备份 - 每天凌晨 3 点
	if cfg.BackupDB {
		s.cron.Every(1).Day().At("03:00").Do(s.backupData)
		logger.Info().Msg("已注册: 数据备份任务 (每天 03:00)")
	}

	// 缓存清理 - 每天凌晨 4 点
	if cfg.FlushCache {
		s.cron.Every(1).Day().At("04:00").Do(s.flushCaches)
		logger.Info().Msg("已注册: 缓存清理任务 (每天 04:00)")
	}
}

// AddJob 添加自定义任务
func (s *Scheduler) AddJob(cronExpr string, job func()) error {
	_, err := s.cron.Cron(cronExpr).Do(job)
	return err
}

// backupData 备份收藏与历史数据
func (s *Scheduler) backupData() {
	logger.Info().Msg("执行定时任务: 数据备份")

	if err := service.NewBackupService().Run(); err != nil {
		logger.Error().Err(err).Msg("数据备份失败")
	}
}

// flushCaches 清理 API 缓存与过期会话
func (s *Scheduler) flushCaches() {
	logger.Info().Msg("执行定时任务: 缓存清理")

	utils.CacheFlush()
	session.GetManager().Flush()
}
