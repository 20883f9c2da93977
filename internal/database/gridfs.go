package repository

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"WaGPT/entity"
)

func (m *MongoDB) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	db, err := m.db(ctx)
	if err != nil {
		return nil, err
	}
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(mediaBucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return bucket, nil
}

// UploadFile stores a file in GridFS and returns the generated file ID and size.
func (m *MongoDB) UploadFile(ctx context.Context, filename string, reader io.Reader, meta entity.FileMetadata) (primitive.ObjectID, int64, error) {
	bucket, err := m.bucket(ctx)
	if err != nil {
		return primitive.NilObjectID, 0, err
	}

	uploadOpts := options.GridFSUpload().SetMetadata(meta)
	uploadStream, err := bucket.OpenUploadStream(filename, uploadOpts)
	if err != nil {
		return primitive.NilObjectID, 0, fmt.Errorf("gridfs open upload: %w", err)
	}

	size, err := io.Copy(uploadStream, reader)
	if err != nil {
		uploadStream.Close()
		return primitive.NilObjectID, 0, fmt.Errorf("gridfs copy: %w", err)
	}

	if err := uploadStream.Close(); err != nil {
		return primitive.NilObjectID, 0, fmt.Errorf("gridfs close upload: %w", err)
	}

	fileID := uploadStream.FileID.(primitive.ObjectID)
	return fileID, size, nil
}

// DownloadFile retrieves a file from GridFS by its ID.
// The caller must close the returned ReadCloser.
func (m *MongoDB) DownloadFile(ctx context.Context, fileID primitive.ObjectID) (string, entity.FileMetadata, io.ReadCloser, error) {
	bucket, err := m.bucket(ctx)
	if err != nil {
		return "", entity.FileMetadata{}, nil, err
	}

	stream, err := bucket.OpenDownloadStream(fileID)
	if err != nil {
		return "", entity.FileMetadata{}, nil, fmt.Errorf("gridfs open download: %w", err)
	}

	file := stream.GetFile()
	filename := file.Name

	var meta entity.FileMetadata
	if len(file.Metadata) > 0 {
		if err := bson.Unmarshal(file.Metadata, &meta); err != nil {
			m.log.Error("failed to unmarshal gridfs metadata", "error", err.Error())
		}
	}

	return filename, meta, stream, nil
}

// DeleteFilesBefore removes media uploaded before cutoff and reports how many were deleted.
func (m *MongoDB) DeleteFilesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	bucket, err := m.bucket(ctx)
	if err != nil {
		return 0, err
	}

	filter := bson.D{{Key: "uploadDate", Value: bson.D{{Key: "$lt", Value: cutoff}}}}
	cursor, err := bucket.FindContext(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("gridfs find expired: %w", err)
	}
	defer cursor.Close(ctx)

	deleted := 0
	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			continue
		}
		if err := bucket.DeleteContext(ctx, file.ID); err != nil {
			m.log.Warn("failed to delete expired media", "file_id", file.ID.Hex(), "error", err.Error())
			continue
		}
		deleted++
	}

	return deleted, cursor.Err()
}
