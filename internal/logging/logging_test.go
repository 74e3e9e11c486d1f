package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipshare/internal/payload"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("tint"))
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatAuto, ParseFormat("whatever"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestNewHandlerJSONWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, FormatAuto, slog.LevelInfo))
	l.Info("hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
}

func TestLogPayload(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewHandler(&buf, FormatJSON, slog.LevelDebug)))
	defer slog.SetDefault(prev)

	LogPayload("synced", "out", payload.Text("hello"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"direction":"out"`)
	assert.Contains(t, lines[0], `"mime":"text/plain"`)
	assert.Contains(t, lines[1], `"preview":"hello"`)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))
	long := strings.Repeat("é", 200)
	p := Preview(long)
	assert.True(t, strings.HasSuffix(p, "…"))
	assert.Len(t, []rune(p), 121)
}
