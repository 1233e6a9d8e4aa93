package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/andresuchdata/erpsync/internal/config"
)

var ErrDisabled = errors.New("object storage disabled")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStorage captures the operations the export jobs need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

// New builds the backend selected by cfg.Backend: "minio", "drive" or
// "none". Object keys are placed under cfg.Prefix.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "", "none":
		return disabled{}, nil
	case "minio", "s3":
		backend, err = NewMinioClient(MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
	case "drive":
		backend, err = NewDriveClient(ctx, cfg.DriveCredential, cfg.DriveFolderID)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Prefix == "" {
		return backend, nil
	}
	return prefixed{prefix: strings.Trim(cfg.Prefix, "/"), backend: backend}, nil
}

type disabled struct{}

func (disabled) ListObjects(context.Context, string) ([]ObjectInfo, error) {
	return nil, ErrDisabled
}

func (disabled) UploadObject(context.Context, string, []byte, string) error {
	return ErrDisabled
}

type prefixed struct {
	prefix  string
	backend ObjectStorage
}

func (p prefixed) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects, err := p.backend.ListObjects(ctx, path.Join(p.prefix, prefix))
	if err != nil {
		return nil, err
	}
	for i := range objects {
		objects[i].Key = strings.TrimPrefix(objects[i].Key, p.prefix+"/")
	}
	return objects, nil
}

func (p prefixed) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	return p.backend.UploadObject(ctx, path.Join(p.prefix, key), data, contentType)
}
