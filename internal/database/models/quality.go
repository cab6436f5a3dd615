// Package models 数据模型 - 音质等级
package models

// Quality 音质等级
type Quality string

const (
	Quality128k   Quality = "128k"      // MP3 128kbps
	Quality320k   Quality = "320k"      // MP3 320kbps
	QualityFlac   Quality = "flac"      // 无损
	QualityFlac24 Quality = "flac24bit" // 24bit 无损，仅显式请求时使用
)

// qualityOrder 音质从低到高的全序
var qualityOrder = []Quality{Quality128k, Quality320k, QualityFlac, QualityFlac24}

// AllQualities 返回所有音质（从低到高）
func AllQualities() []Quality {
	out := make([]Quality, len(qualityOrder))
	copy(out, qualityOrder)
	return out
}

// ParseQuality 解析音质字符串
func ParseQuality(s string) (Quality, bool) {
	q := Quality(s)
	return q, q.IsValid()
}

// IsValid 是否是合法音质
func (q Quality) IsValid() bool {
	for _, v := range qualityOrder {
		if v == q {
			return true
		}
	}
	return false
}

// Rank 音质序号（越大越高，非法音质返回 -1）
func (q Quality) Rank() int {
	for i, v := range qualityOrder {
		if v == q {
			return i
		}
	}
	return -1
}

// FallbackLadder 构建降级阶梯：从当前音质到最低音质，降序排列。
// flac24bit 只会出现在阶梯顶端（显式请求时），绝不通过降级进入。
func (q Quality) FallbackLadder() []Quality {
	rank := q.Rank()
	if rank < 0 {
		return nil
	}
	ladder := make([]Quality, 0, rank+1)
	for i := rank; i >= 0; i-- {
		ladder = append(ladder, qualityOrder[i])
	}
	return ladder
}

// FileExt 根据音质确定文件扩展名
func (q Quality) FileExt() string {
	if q == QualityFlac || q == QualityFlac24 {
		return ".flac"
	}
	return ".mp3"
}
