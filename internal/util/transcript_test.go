package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTranscript(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantRaw  bool
	}{
		{
			name:     "double encoded segments",
			raw:      `"[{\"text\":\"hello\"},{\"text\":\"world\"}]"`,
			wantText: "hello, world",
		},
		{
			name:     "single segment",
			raw:      `"[{\"text\":\"only one\"}]"`,
			wantText: "only one",
		},
		{
			name:     "segments with extra fields",
			raw:      `"[{\"text\":\"a\",\"start\":0.5},{\"text\":\"b\",\"start\":2.1}]"`,
			wantText: "a, b",
		},
		{
			name:     "empty segment list",
			raw:      `"[]"`,
			wantText: "",
		},
		{
			name:     "plain text falls back to raw",
			raw:      "Just a plain transcript.",
			wantText: "Just a plain transcript.",
			wantRaw:  true,
		},
		{
			name:     "inner value not an array",
			raw:      `"not json at all"`,
			wantText: `"not json at all"`,
			wantRaw:  true,
		},
		{
			name:     "single encoded array is not unwrapped",
			raw:      `[{"text":"hello"}]`,
			wantText: `[{"text":"hello"}]`,
			wantRaw:  true,
		},
		{
			name:    "empty input",
			raw:     "",
			wantRaw: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTranscript(tt.raw)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantRaw, got.Raw)
		})
	}
}
