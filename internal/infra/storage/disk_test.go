package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/innerantelope/predictive-maintenance/internal/domain/analyses"
)

var namePattern = regexp.MustCompile(`^machine-\d+-\d{9}(\.[A-Za-z0-9]+)?$`)

func TestGenerateName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name := GenerateName(now, ".png")
	assert.Regexp(t, namePattern, name)
	assert.True(t, strings.HasPrefix(name, "machine-1700000000123-"))
	assert.True(t, strings.HasSuffix(name, ".png"))
}

func TestSafeExt(t *testing.T) {
	tests := map[string]string{
		"photo.png":           ".png",
		"photo.JPEG":          ".JPEG",
		"archive.tar.gz":      ".gz",
		"noext":               "",
		".hidden":             "",
		"trailing.":           "",
		"dir/pic.webp":        ".webp",
		`C:\pics\pic.gif`:     ".gif",
		"weird.p$g":           "",
		"x.abcdefghijklmnopq": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeExt(in), in)
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("machine-1-000000001.png"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName(".."))
	assert.False(t, ValidName("../etc/passwd"))
	assert.False(t, ValidName(`a\b`))
}

func TestDiskCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	d, err := NewDisk(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, d.Dir())

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	assert.NoError(t, d.Check(context.Background()))
}

func TestDiskSave(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	data := []byte("\x89PNG fake image bytes")
	meta := domain.UploadMeta{Field: "image", OriginalName: "pump.png", ContentType: "image/png"}
	f, err := d.Save(context.Background(), meta, bytes.NewReader(data), 1024)
	require.NoError(t, err)

	assert.Regexp(t, namePattern, f.Name)
	assert.Equal(t, ".png", filepath.Ext(f.Name))
	assert.Equal(t, int64(len(data)), f.Size)
	assert.Equal(t, "/uploads/"+f.Name, f.PublicPath())

	got, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDiskSaveExactLimit(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	f, err := d.Save(context.Background(), domain.UploadMeta{OriginalName: "a.jpg"}, bytes.NewReader(make([]byte, 64)), 64)
	require.NoError(t, err)
	assert.Equal(t, int64(64), f.Size)
}

func TestDiskSaveTooLargeLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir)
	require.NoError(t, err)

	_, err = d.Save(context.Background(), domain.UploadMeta{OriginalName: "a.jpg"}, bytes.NewReader(make([]byte, 65)), 64)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n > 0 {
		n := min(len(p), r.n)
		r.n -= n
		return n, nil
	}
	return 0, errors.New("connection reset")
}

func TestDiskSaveReadErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir)
	require.NoError(t, err)

	_, err = d.Save(context.Background(), domain.UploadMeta{OriginalName: "a.jpg"}, &failingReader{n: 10}, 64)
	assert.EqualError(t, err, "connection reset")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskSaveConcurrentNamesDistinct(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	fixed := time.UnixMilli(1700000000000)
	d.now = func() time.Time { return fixed }

	const n = 20
	var wg sync.WaitGroup
	names := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := d.Save(context.Background(), domain.UploadMeta{OriginalName: "same.png"}, strings.NewReader("x"), 10)
			names[i], errs[i] = f.Name, err
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[names[i]], "duplicate name %s", names[i])
		seen[names[i]] = true
	}
}

func TestDiskRemove(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	f, err := d.Save(context.Background(), domain.UploadMeta{OriginalName: "a.png"}, strings.NewReader("x"), 10)
	require.NoError(t, err)

	require.NoError(t, d.Remove(context.Background(), f.Name))
	_, err = os.Stat(f.Path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, d.Remove(context.Background(), f.Name), "removing twice is fine")
	assert.Error(t, d.Remove(context.Background(), "../escape"))
}

func TestDiskSaveCanceledContext(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Save(ctx, domain.UploadMeta{}, strings.NewReader("x"), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeFor("uploads/a.png"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("uploads/a"))
}
