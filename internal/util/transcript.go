package util

import (
	"encoding/json"
	"strings"
)

// NormalizedTranscript 规范化结果；Raw 为 true 表示解析失败，Text 即原始输入
type NormalizedTranscript struct {
	Text string
	Raw  bool
}

type transcriptSegment struct {
	Text string `json:"text"`
}

// NormalizeTranscript 兼容历史上被二次 JSON 编码的字幕存储：
// 先按 JSON 字符串解一层，再把内层字符串解成 [{text}] 数组，
// 成功则用 ", " 连接各段，任何一步失败都原样返回输入。
func NormalizeTranscript(raw string) NormalizedTranscript {
	if raw == "" {
		return NormalizedTranscript{Text: "", Raw: true}
	}

	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil {
		return NormalizedTranscript{Text: raw, Raw: true}
	}

	var segments []transcriptSegment
	if err := json.Unmarshal([]byte(inner), &segments); err != nil {
		return NormalizedTranscript{Text: raw, Raw: true}
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}

	return NormalizedTranscript{Text: strings.Join(parts, ", ")}
}
