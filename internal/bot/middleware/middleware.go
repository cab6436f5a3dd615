// Package middleware Bot 中间件
package middleware

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/tunebot-go/internal/config"
	"github.com/smysle/tunebot-go/pkg/logger"
)

// Logger 请求日志中间件
func Logger() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)

			event := logger.Debug()
			if err != nil {
				event = logger.Error().Err(err)
			}

			var userID int64
			if c.Sender() != nil {
				userID = c.Sender().ID
			}
			event.
				Int64("user", userID).
				Str("text", c.Text()).
				Dur("elapsed", time.Since(start)).
				Msg("处理更新")
			return err
		}
	}
}

// Recover 恐慌恢复中间件
func Recover() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Interface("panic", r).
						Str("stack", string(debug.Stack())).
						Msg("处理器恐慌")
				}
			}()
			return next(c)
		}
	}
}

// AllowedOnly 白名单校验中间件，白名单为空时对所有人开放
func AllowedOnly() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if !config.Get().IsAllowed(sender.ID) {
				logger.Warn().Int64("user", sender.ID).Msg("拒绝未授权用户")
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: "⛔ 无权使用本 Bot"})
				}
				return c.Send("⛔ 你没有权限使用本 Bot")
			}
			return next(c)
		}
	}
}

// rateLimiter 朴素的每用户限频
type rateLimiter struct {
	mu       sync.Mutex
	lastSeen map[int64]time.Time
	interval time.Duration
}

// RateLimit 限频中间件，同一用户两次请求至少间隔 interval
func RateLimit(interval time.Duration) tele.MiddlewareFunc {
	rl := &rateLimiter{
		lastSeen: make(map[int64]time.Time),
		interval: interval,
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			rl.mu.Lock()
			last, ok := rl.lastSeen[sender.ID]
			now := time.Now()
			if ok && now.Sub(last) < rl.interval {
				rl.mu.Unlock()
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{
						Text: fmt.Sprintf("操作太快了，请 %s 后再试", rl.interval),
					})
				}
				return nil
			}
			rl.lastSeen[sender.ID] = now
			rl.mu.Unlock()

			return next(c)
		}
	}
}
