package mediastore

import (
	"WaGPT/entity"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

type fakeRepo struct {
	id       primitive.ObjectID
	filename string
	meta     entity.FileMetadata
	data     []byte
	cutoff   time.Time
}

func (f *fakeRepo) UploadFile(_ context.Context, filename string, reader io.Reader, meta entity.FileMetadata) (primitive.ObjectID, int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return primitive.NilObjectID, 0, err
	}
	f.id = primitive.NewObjectID()
	f.filename = filename
	f.meta = meta
	f.data = data
	return f.id, int64(len(data)), nil
}

func (f *fakeRepo) DownloadFile(_ context.Context, id primitive.ObjectID) (string, entity.FileMetadata, io.ReadCloser, error) {
	return f.filename, f.meta, io.NopCloser(bytes.NewReader(f.data)), nil
}

func (f *fakeRepo) DeleteFilesBefore(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return 1, nil
}

func TestGridStore_StoreAndOpen(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	store := NewGridStore(repo, "https://bot.example.com/", "s3cret", 11*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	link, err := store.Store(ctx, "15551234567", pngPixel, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(repo.filename, ".png"))
	assert.Equal(t, "image/png", repo.meta.MIMEType)
	assert.Equal(t, "15551234567", repo.meta.Sender)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "bot.example.com", u.Host)
	assert.Equal(t, "/media/"+repo.id.Hex(), u.Path)

	q := u.Query()
	filename, mimeType, rc, err := store.Open(ctx, repo.id.Hex(), q.Get("expires"), q.Get("sig"))
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, repo.filename, filename)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, pngPixel, body)

	_, _, _, err = store.Open(ctx, repo.id.Hex(), q.Get("expires"), "bad")
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestGridStore_Cleanup(t *testing.T) {
	repo := &fakeRepo{}
	store := NewGridStore(repo, "https://bot.example.com", "s3cret", time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n, err := store.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), repo.cutoff, 5*time.Second)
}

func TestInlineStore_SniffsType(t *testing.T) {
	link, err := InlineStore{}.Store(context.Background(), "1", pngPixel, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "data:image/png;base64,"))
}
