package shared

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		file File
		ok   bool
	}{
		{"text.txt", TextFile, true},
		{"/some/dir/text.txt", TextFile, true},
		{"img.png", ImageFile, true},
		{"/some/dir/TEXT.TXT", 0, false},
		{"Img.PNG", 0, false},
		{"other.txt", 0, false},
		{".text.txt.swp", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Lookup(tt.name)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.file, f)
			}
		})
	}
}

func TestInitEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	d, err := Init(dir)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "text.txt"))
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = os.Stat(filepath.Join(dir, "img.png"))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "img.png must not be pre-created")

	assert.Equal(t, filepath.Join(d.Root(), "text.txt"), d.Path(TextFile))
}

func TestInitKeepsExistingText(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "text.txt"), []byte("keep"), 0o644))

	d, err := Init(dir)
	require.NoError(t, err)
	b, err := d.Read(TextFile)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("")
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)

	_, err = Init(filepath.Join(t.TempDir(), "missing"))
	require.ErrorAs(t, err, &ce)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = Open(file)
	assert.ErrorAs(t, err, &ce)
}

func TestWriteText(t *testing.T) {
	d, err := Init(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, d.WriteText([]byte("a much longer first value")))
	require.NoError(t, d.WriteText([]byte("hello")))

	b, err := d.Read(TextFile)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestWriteImageReplaces(t *testing.T) {
	d, err := Init(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, d.WriteImage([]byte("first-image-bytes")))
	require.NoError(t, d.WriteImage([]byte("second")))

	b, err := d.Read(ImageFile)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
}

func TestStat(t *testing.T) {
	d, err := Init(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.WriteText([]byte("abc")))

	infos := d.Stat()
	require.Len(t, infos, 2)
	assert.Equal(t, "text.txt", infos[0].Name)
	assert.True(t, infos[0].Exists)
	assert.EqualValues(t, 3, infos[0].Size)
	assert.Equal(t, "img.png", infos[1].Name)
	assert.False(t, infos[1].Exists)
}
