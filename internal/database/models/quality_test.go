// Package models 音质等级测试
package models

import (
	"reflect"
	"testing"
)

func TestQuality_FallbackLadder(t *testing.T) {
	tests := []struct {
		name     string
		quality  Quality
		expected []Quality
	}{
		{
			name:     "请求 128k 无降级空间",
			quality:  Quality128k,
			expected: []Quality{Quality128k},
		},
		{
			name:     "请求 320k",
			quality:  Quality320k,
			expected: []Quality{Quality320k, Quality128k},
		},
		{
			name:     "请求 flac",
			quality:  QualityFlac,
			expected: []Quality{QualityFlac, Quality320k, Quality128k},
		},
		{
			name:     "显式请求 flac24bit 才会出现在阶梯中",
			quality:  QualityFlac24,
			expected: []Quality{QualityFlac24, QualityFlac, Quality320k, Quality128k},
		},
		{
			name:     "非法音质返回空阶梯",
			quality:  Quality("640k"),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.quality.FallbackLadder()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FallbackLadder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestQuality_LadderNeverUpgrades(t *testing.T) {
	// 阶梯内不允许出现高于请求音质的项，也不允许重复
	for _, q := range AllQualities() {
		seen := map[Quality]bool{}
		for _, step := range q.FallbackLadder() {
			if step.Rank() > q.Rank() {
				t.Errorf("音质 %s 的阶梯中出现了更高的 %s", q, step)
			}
			if seen[step] {
				t.Errorf("音质 %s 的阶梯中出现重复项 %s", q, step)
			}
			seen[step] = true
		}
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"128k", true},
		{"320k", true},
		{"flac", true},
		{"flac24bit", true},
		{"ape", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if _, ok := ParseQuality(tt.input); ok != tt.valid {
				t.Errorf("ParseQuality(%q) valid = %v, want %v", tt.input, ok, tt.valid)
			}
		})
	}
}

func TestQuality_FileExt(t *testing.T) {
	if ext := Quality320k.FileExt(); ext != ".mp3" {
		t.Errorf("320k 扩展名应该是 .mp3，实际是 %s", ext)
	}
	if ext := QualityFlac.FileExt(); ext != ".flac" {
		t.Errorf("flac 扩展名应该是 .flac，实际是 %s", ext)
	}
	if ext := QualityFlac24.FileExt(); ext != ".flac" {
		t.Errorf("flac24bit 扩展名应该是 .flac，实际是 %s", ext)
	}
}
