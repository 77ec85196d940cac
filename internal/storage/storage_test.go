package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agilecoach/internal/errors"
)

func TestFileStore_UploadCreatesBucketLazily(t *testing.T) {
	store := NewFileStore(t.TempDir(), "https://site.example/storage/")

	obj, err := store.Upload(context.Background(), "course-images", "scrum/cover.png", strings.NewReader("png"), UploadOptions{CacheControl: "max-age=60"})
	require.NoError(t, err)

	assert.Equal(t, "https://site.example/storage/course-images/scrum/cover.png", obj.PublicURL)
	assert.Equal(t, int64(3), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)

	assert.Equal(t, "max-age=60", obj.CacheControl)

	f, meta, err := store.Open(context.Background(), "course-images", "scrum/cover.png")
	require.NoError(t, err)
	defer f.Close()
	data, _ := io.ReadAll(f)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "max-age=60", meta.CacheControl)
}

func TestFileStore_UpsertSemantics(t *testing.T) {
	store := NewFileStore(t.TempDir(), "/storage")
	ctx := context.Background()

	_, err := store.Upload(ctx, "media", "a.txt", strings.NewReader("one"), UploadOptions{})
	require.NoError(t, err)

	_, err = store.Upload(ctx, "media", "a.txt", strings.NewReader("two"), UploadOptions{})
	assert.ErrorIs(t, err, apperrors.ErrObjectExists)

	_, err = store.Upload(ctx, "media", "a.txt", strings.NewReader("three"), UploadOptions{Upsert: true})
	require.NoError(t, err)

	f, _, err := store.Open(ctx, "media", "a.txt")
	require.NoError(t, err)
	defer f.Close()
	data, _ := io.ReadAll(f)
	assert.Equal(t, "three", string(data))
}

func TestFileStore_RejectsEscapingPaths(t *testing.T) {
	store := NewFileStore(t.TempDir(), "/storage")

	for _, p := range []string{"../secret", "a/../../b", "", `a\b`} {
		_, err := store.Upload(context.Background(), "media", p, strings.NewReader("x"), UploadOptions{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidObjectPath, p)
	}
	_, err := store.Upload(context.Background(), "../etc", "x", strings.NewReader("x"), UploadOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidObjectPath)
}

func TestFileStore_PublicURLEscapesSegments(t *testing.T) {
	store := NewFileStore("/unused", "https://cdn.example/storage")
	assert.Equal(t, "https://cdn.example/storage/media/team%20photo.jpg", store.PublicURL("media", "team photo.jpg"))
}

func TestFileStore_DefaultsAndMissingObjects(t *testing.T) {
	store := NewFileStore(t.TempDir(), "/storage")
	defer store.Close()
	ctx := context.Background()

	obj, err := store.Upload(ctx, "media", "notes/agenda.txt", strings.NewReader("day one"), UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, defaultCacheControl, obj.CacheControl)
	assert.True(t, strings.HasPrefix(obj.ContentType, "text/plain"), obj.ContentType)
	assert.Equal(t, int64(7), obj.Size)

	_, _, err = store.Open(ctx, "media", "notes/missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	// Attribute sidecars are never addressable as objects.
	_, _, err = store.Open(ctx, "media", "notes/agenda.txt.attrs")
	assert.ErrorIs(t, err, apperrors.ErrInvalidObjectPath)
	_, err = store.Upload(ctx, "media", "x.attrs", strings.NewReader("x"), UploadOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidObjectPath)

	assert.NoError(t, store.Close())
}

func TestFileStore_SeekableReader(t *testing.T) {
	store := NewFileStore(t.TempDir(), "/storage")
	defer store.Close()
	ctx := context.Background()

	_, err := store.Upload(ctx, "media", "range.txt", strings.NewReader("0123456789"), UploadOptions{})
	require.NoError(t, err)

	rd, _, err := store.Open(ctx, "media", "range.txt")
	require.NoError(t, err)
	defer rd.Close()
	_, err = rd.Seek(5, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, "56789", string(rest))
}
