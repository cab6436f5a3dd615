// Package bot Telegram Bot 核心
package bot

import (
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/bot/handlers"
	"github.com/smysle/tunebot-go/internal/bot/middleware"
	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// Bot Telegram Bot 实例
type Bot struct {
	*tele.Bot
	cfg *config.Config
}

var instance *Bot

// New 创建新的 Bot 实例
func New(cfg *config.Config) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error().Err(err).Msg("Bot 错误")
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		Bot: b,
		cfg: cfg,
	}

	bot.registerMiddleware()
	bot.registerHandlers()
	bot.setCommands()

	instance = bot
	return bot, nil
}

// Get 获取 Bot 单例
func Get() *Bot {
	return instance
}

// registerMiddleware 注册中间件
func (b *Bot) registerMiddleware() {
	// 日志中间件
	b.Use(middleware.Logger())

	// 恢复中间件
	b.Use(middleware.Recover())

	// 白名单校验
	b.Use(middleware.AllowedOnly())

	// 限频，防止连点下载按钮
	b.Use(middleware.RateLimit(time.Second))
}

// registerHandlers 注册所有处理器
func (b *Bot) registerHandlers() {
	// 用户命令
	b.Handle("/start", handlers.Start)
	b.Handle("/help", handlers.Help)
	b.Handle("/search", handlers.Search)
	b.Handle("/quality", handlers.QualitySettings)
	b.Handle("/fav", handlers.Favorites)
	b.Handle("/history", handlers.History)
	b.Handle("/top", handlers.Toplists)

	// 回调查询
	b.Handle(tele.OnCallback, handlers.OnCallback)

	// 内联查询
	b.Handle(tele.OnQuery, handlers.OnInlineQuery)

	// 文本消息当作搜索关键词
	b.Handle(tele.OnText, handlers.OnText)
}

// setCommands 设置命令列表
func (b *Bot) setCommands() {
	cmds := []tele.Command{
		{Text: "start", Description: "开始使用"},
		{Text: "search", Description: "搜索歌曲"},
		{Text: "quality", Description: "设置下载音质"},
		{Text: "fav", Description: "我的收藏"},
		{Text: "history", Description: "下载历史"},
		{Text: "top", Description: "排行榜"},
		{Text: "help", Description: "使用帮助"},
	}

	if err := b.SetCommands(cmds); err != nil {
		logger.Warn().Err(err).Msg("设置命令列表失败")
	}
}

// Run 运行 Bot
func (b *Bot) Run() {
	logger.Info().Str("bot", b.cfg.BotName).Msg("Bot 启动中...")
	b.Start()
}

// Stop 停止 Bot
func (b *Bot) Stop() {
	logger.Info().Msg("Bot 停止中...")
	b.Bot.Stop()
}
