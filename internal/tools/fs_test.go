package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWrite_ThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	write := FileWrite()
	res, err := write(context.Background(), map[string]any{
		"path":    path,
		"content": "hello workflow",
	}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 14, res.Fields["bytes_written"])

	read := FileRead(FSConfig{})
	res, err = read(context.Background(), map[string]any{"path": path}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "hello workflow", res.Output)
	assert.Equal(t, "text", res.Fields["encoding"])
	assert.Equal(t, 14, res.Fields["size"])
}

func TestFileWrite_CreateDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "out.txt")

	write := FileWrite()
	res, err := write(context.Background(), map[string]any{
		"path":        path,
		"content":     "x",
		"create_dirs": true,
	}, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestFileRead_Binary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0o644))

	read := FileRead(FSConfig{})
	res, err := read(context.Background(), map[string]any{"path": path}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "base64", res.Fields["encoding"])
}

func TestFileRead_MissingFileFailsResult(t *testing.T) {
	read := FileRead(FSConfig{})
	res, err := read(context.Background(), map[string]any{"path": "/nonexistent/nope"}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestFileRead_MaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	read := FileRead(FSConfig{MaxReadSize: 5})
	res, err := read(context.Background(), map[string]any{"path": path}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "max read size")
}

func TestFS_MissingParams(t *testing.T) {
	res, err := FileWrite()(context.Background(), map[string]any{"path": "/tmp/x"}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = FileRead(FSConfig{})(context.Background(), map[string]any{}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
}
