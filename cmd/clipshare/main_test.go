package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipshare/internal/codec"
	"go.klb.dev/clipshare/internal/shared"
)

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CLIPSHARE_SOCKET", filepath.Join(t.TempDir(), "none.sock"))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(stdin)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "clipshare dev\n", out)
}

func TestCopyPasteText(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, strings.NewReader("hello"), "copy", dir)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "text.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	out, err := execute(t, nil, "paste", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestCopyPasteImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	png, err := codec.EncodeImage(img)
	require.NoError(t, err)

	_, err = execute(t, bytes.NewReader(png), "copy", "--image", dir)
	require.NoError(t, err)

	out, err := execute(t, nil, "paste", "--image", dir)
	require.NoError(t, err)
	assert.Equal(t, string(png), out)
}

func TestCopyImageRejectsNonPNG(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, strings.NewReader("not a png"), "copy", "--image", dir)
	require.Error(t, err)
	assert.True(t, codec.IsDecodeError(err))

	_, statErr := os.Stat(filepath.Join(dir, "img.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPasteNothingShared(t *testing.T) {
	out, err := execute(t, nil, "paste", "--image", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunMissingDirIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := execute(t, nil, "run", missing, "--headless", "--no-ipc", "--log-format", "json", "--log-level", "error")
	require.Error(t, err)

	var ce *shared.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestStatusJSON(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, strings.NewReader("abc"), "copy", dir)
	require.NoError(t, err)

	out, err := execute(t, nil, "status", "--json", dir)
	require.NoError(t, err)

	var rep statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Nil(t, rep.Daemon)
	require.Len(t, rep.Files, 2)
	assert.True(t, rep.Files[0].Exists)
	assert.EqualValues(t, 3, rep.Files[0].Size)
	assert.False(t, rep.Files[1].Exists)
}

func TestStatusText(t *testing.T) {
	out, err := execute(t, nil, "status", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
	assert.Contains(t, out, "img.png")
}
