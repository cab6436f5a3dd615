// Package imggen 图片生成模块
package imggen

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"time"

	"github.com/fogleman/gg"
)

// TrackItem 榜单歌曲条目
type TrackItem struct {
	Rank   int
	Name   string
	Artist string
}

// ToplistConfig 榜单图片配置
type ToplistConfig struct {
	Title       string
	Platform    string // 平台显示名
	Items       []TrackItem
	GeneratedAt time.Time
}

// 颜色定义
var (
	bgColor      = color.RGBA{25, 25, 35, 255}    // 深色背景
	cardColor    = color.RGBA{35, 35, 50, 255}    // 卡片背景
	goldColor    = color.RGBA{255, 215, 0, 255}   // 金色
	silverColor  = color.RGBA{192, 192, 192, 255} // 银色
	bronzeColor  = color.RGBA{205, 127, 50, 255}  // 铜色
	textColor    = color.RGBA{255, 255, 255, 255} // 白色文字
	subTextColor = color.RGBA{180, 180, 180, 255} // 灰色文字
	accentColor  = color.RGBA{30, 144, 255, 255}  // 蓝色强调
	topBgColor   = color.RGBA{30, 60, 114, 255}   // 渐变起始
)

// GenerateToplist 生成榜单图片
func GenerateToplist(cfg ToplistConfig) ([]byte, error) {
	width := 600
	headerHeight := 120
	itemHeight := 60
	footerHeight := 50
	padding := 20

	itemCount := len(cfg.Items)
	if itemCount > 10 {
		itemCount = 10
	}

	height := headerHeight + itemCount*itemHeight + footerHeight + padding*2

	dc := gg.NewContext(width, height)

	drawBackground(dc, width, height)
	drawHeader(dc, width, cfg)

	startY := float64(headerHeight + padding)
	for i, item := range cfg.Items {
		if i >= 10 {
			break
		}
		drawTrackItem(dc, width, startY+float64(i*itemHeight), item)
	}

	drawFooter(dc, width, height, cfg.GeneratedAt)

	return exportPNG(dc)
}

// drawBackground 绘制渐变背景
func drawBackground(dc *gg.Context, width, height int) {
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height)
		r := uint8(float64(topBgColor.R)*(1-t) + float64(bgColor.R)*t)
		g := uint8(float64(topBgColor.G)*(1-t) + float64(bgColor.G)*t)
		b := uint8(float64(topBgColor.B)*(1-t) + float64(bgColor.B)*t)
		dc.SetColor(color.RGBA{r, g, b, 255})
		dc.DrawRectangle(0, float64(y), float64(width), 1)
		dc.Fill()
	}
}

// drawHeader 绘制标题
func drawHeader(dc *gg.Context, width int, cfg ToplistConfig) {
	dc.SetColor(textColor)
	title := fmt.Sprintf("🎵 %s", cfg.Title)
	dc.DrawStringAnchored(title, float64(width)/2, 45, 0.5, 0.5)

	dc.SetColor(subTextColor)
	dc.DrawStringAnchored(cfg.Platform, float64(width)/2, 80, 0.5, 0.5)

	dc.SetColor(accentColor)
	dc.SetLineWidth(2)
	dc.DrawLine(50, 110, float64(width-50), 110)
	dc.Stroke()
}

// drawTrackItem 绘制歌曲条目
func drawTrackItem(dc *gg.Context, width int, y float64, item TrackItem) {
	cardX := 20.0
	cardY := y
	cardW := float64(width - 40)
	cardH := 50.0

	dc.SetColor(color.RGBA{cardColor.R, cardColor.G, cardColor.B, 200})
	dc.DrawRoundedRectangle(cardX, cardY, cardW, cardH, 10)
	dc.Fill()

	rankX := cardX + 35
	rankY := cardY + cardH/2

	var rankColor color.RGBA
	rankText := ""
	switch item.Rank {
	case 1:
		rankColor = goldColor
		rankText = "🥇"
	case 2:
		rankColor = silverColor
		rankText = "🥈"
	case 3:
		rankColor = bronzeColor
		rankText = "🥉"
	default:
		rankColor = subTextColor
		rankText = fmt.Sprintf("%d", item.Rank)
	}

	dc.SetColor(rankColor)
	dc.DrawStringAnchored(rankText, rankX, rankY, 0.5, 0.5)

	dc.SetColor(textColor)
	dc.DrawStringAnchored(item.Name, cardX+90, rankY-10, 0, 0.5)

	dc.SetColor(subTextColor)
	dc.DrawStringAnchored(item.Artist, cardX+90, rankY+12, 0, 0.5)
}

// drawFooter 绘制底部
func drawFooter(dc *gg.Context, width, height int, generatedAt time.Time) {
	dc.SetColor(subTextColor)
	footerText := fmt.Sprintf("生成于 %s | TuneBot", generatedAt.Format("2006-01-02 15:04"))
	dc.DrawStringAnchored(footerText, float64(width)/2, float64(height-25), 0.5, 0.5)
}

// exportPNG 导出为 PNG
func exportPNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
