package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileExtension(t *testing.T) {
	assert.Equal(t, "jpg", GetFileExtension("/tmp/Photo.JPG"))
	assert.Equal(t, "png", GetFileExtension("a.b.png"))
	assert.Equal(t, "", GetFileExtension("README"))
}

func TestIsImageFile(t *testing.T) {
	formats := []string{"jpg", "jpeg", "png"}
	assert.True(t, IsImageFile("x.jpeg", formats))
	assert.True(t, IsImageFile("x.PNG", formats))
	assert.False(t, IsImageFile("x.gif", formats))
	assert.False(t, IsImageFile("x", formats))
}

func TestDotExtensions(t *testing.T) {
	assert.Equal(t, []string{".jpg", ".png", ".webp"}, DotExtensions([]string{"jpg", " .PNG", "webp", ""}))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "a dog running", CollapseSpaces("  a\tdog \n running  "))
	assert.Equal(t, "", CollapseSpaces("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "مرح…", Truncate("مرحبا بكم", 4))
	assert.Equal(t, "", Truncate("hello", 0))
}
