// Package mediastore keeps images the language model must fetch by URL.
package mediastore

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/fileurl"
	"WaGPT/internal/lib/sl"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Repository interface {
	UploadFile(ctx context.Context, filename string, reader io.Reader, meta entity.FileMetadata) (primitive.ObjectID, int64, error)
	DownloadFile(ctx context.Context, fileID primitive.ObjectID) (string, entity.FileMetadata, io.ReadCloser, error)
	DeleteFilesBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// GridStore uploads media to GridFS and hands out signed, expiring links.
type GridStore struct {
	repo      Repository
	publicURL string
	secret    string
	ttl       time.Duration
	log       *slog.Logger
}

// NewGridStore returns a store whose links live for ttl.
func NewGridStore(repo Repository, publicURL, secret string, ttl time.Duration, logger *slog.Logger) *GridStore {
	return &GridStore{
		repo:      repo,
		publicURL: publicURL,
		secret:    secret,
		ttl:       ttl,
		log:       logger.With(sl.Module("media store")),
	}
}

// Store uploads data and returns a signed URL to it.
func (s *GridStore) Store(ctx context.Context, sender string, data []byte, mimeType string) (string, error) {
	mimeType, ext := resolveType(data, mimeType)
	filename := uuid.NewString() + ext

	id, size, err := s.repo.UploadFile(ctx, filename, bytes.NewReader(data), entity.FileMetadata{
		MIMEType: mimeType,
		Sender:   sender,
	})
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	s.log.With(
		slog.String("file", filename),
		slog.Int64("size", size),
	).Debug("media stored")
	return fileurl.SignURL(s.publicURL, id.Hex(), s.secret, s.ttl), nil
}

// Open verifies a signed link and returns the stored file.
func (s *GridStore) Open(ctx context.Context, id, expires, sig string) (string, string, io.ReadCloser, error) {
	if !fileurl.Verify(id, expires, sig, s.secret) {
		return "", "", nil, ErrInvalidLink
	}
	fileID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", "", nil, ErrInvalidLink
	}
	filename, meta, rc, err := s.repo.DownloadFile(ctx, fileID)
	if err != nil {
		return "", "", nil, err
	}
	return filename, meta.MIMEType, rc, nil
}

// Cleanup removes media whose links have already expired.
func (s *GridStore) Cleanup(ctx context.Context) (int, error) {
	return s.repo.DeleteFilesBefore(ctx, time.Now().Add(-s.ttl))
}

// InlineStore embeds media into data: URLs. Used when no object storage is configured.
type InlineStore struct{}

func (InlineStore) Store(_ context.Context, _ string, data []byte, mimeType string) (string, error) {
	mimeType, _ = resolveType(data, mimeType)
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// resolveType prefers the declared MIME type and sniffs the content otherwise.
func resolveType(data []byte, declared string) (string, string) {
	if declared != "" {
		if m := mimetype.Lookup(declared); m != nil {
			return declared, m.Extension()
		}
	}
	m := mimetype.Detect(data)
	if declared != "" {
		return declared, m.Extension()
	}
	return m.String(), m.Extension()
}
