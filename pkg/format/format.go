// Package format 消息格式化工具
package format

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// platforms 平台代码 -> 显示名
var platforms = map[string]string{
	"netease": "网易云",
	"kuwo":    "酷我",
	"qq":      "QQ音乐",
}

// Platform 格式化平台名称，未知平台原样返回
func Platform(source string) string {
	if name, ok := platforms[source]; ok {
		return name
	}
	return source
}

// PlatformCodes 返回已知平台代码（固定顺序）
func PlatformCodes() []string {
	return []string{"netease", "kuwo", "qq"}
}

// FileSize 格式化文件大小
func FileSize(sizeBytes int64) string {
	switch {
	case sizeBytes < 1024:
		return fmt.Sprintf("%dB", sizeBytes)
	case sizeBytes < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(sizeBytes)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(sizeBytes)/(1024*1024))
	}
}

// SongCaption 歌曲消息 caption
func SongCaption(name, artist, album, quality string, sizeBytes int64, source, downgraded string) string {
	lines := []string{fmt.Sprintf("🎵 %s - %s", name, artist)}

	if album != "" {
		lines = append(lines, fmt.Sprintf("💿 %s", album))
	}

	var metaParts []string
	if quality != "" {
		metaParts = append(metaParts, fmt.Sprintf("🎧 %s", quality))
	}
	if sizeBytes > 0 {
		metaParts = append(metaParts, fmt.Sprintf("📦 %s", FileSize(sizeBytes)))
	}
	if len(metaParts) > 0 {
		lines = append(lines, strings.Join(metaParts, " | "))
	}

	if downgraded != "" {
		lines = append(lines, fmt.Sprintf("🔄 %s", downgraded))
	} else if source != "" {
		lines = append(lines, fmt.Sprintf("📍 %s", Platform(source)))
	}

	return strings.Join(lines, "\n")
}

// isCJK 是否为中日韩统一表意文字
func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

// Hashtag 生成单个标签（去掉空格与特殊字符，保留中文），无有效字符返回空串
func Hashtag(text string) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || isCJK(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}

// artistSep 歌手常见分隔符：、/ , & feat. ft.
var artistSep = regexp.MustCompile(`(?i)[、/,&]|feat\.|ft\.`)

// Hashtags 生成归档频道用的标签串：歌名、每位歌手、专辑、来源平台各一个标签
func Hashtags(name, artist, album, source string) string {
	var tags []string

	appendTag := func(text string) {
		tag := Hashtag(text)
		if len(tag) <= 1 {
			return
		}
		for _, existing := range tags {
			if existing == tag {
				return
			}
		}
		tags = append(tags, tag)
	}

	if name != "" {
		appendTag(name)
	}

	for _, a := range artistSep.Split(artist, -1) {
		if a = strings.TrimSpace(a); a != "" {
			appendTag(a)
		}
	}

	if album != "" {
		appendTag(album)
	}

	if source != "" {
		tags = append(tags, "#"+source)
	}

	return strings.Join(tags, " ")
}

// SearchResultLine 搜索结果行
func SearchResultLine(index int, name, artist, source string) string {
	return fmt.Sprintf("%d. %s - %s [%s]", index, name, artist, Platform(source))
}

// FavoriteLine 收藏项行
func FavoriteLine(index int, name, artist, source string) string {
	return fmt.Sprintf("%d. %s - %s [%s]", index, name, artist, Platform(source))
}

// HistoryLine 历史记录行
func HistoryLine(index int, name, artist, quality string) string {
	return fmt.Sprintf("%d. %s - %s (%s)", index, name, artist, quality)
}

// ButtonLabel 按钮文本，超长截断
func ButtonLabel(name, artist string, nameMax, artistMax int) string {
	return fmt.Sprintf("%s - %s", Truncate(name, nameMax), Truncate(artist, artistMax))
}

// Truncate 按字符数截断（非字节数，避免切坏中文）
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
