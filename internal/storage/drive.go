package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveClient stores objects as files of a Google Drive folder. The object
// key becomes the file name.
type DriveClient struct {
	srv      *drive.Service
	folderID string
}

func NewDriveClient(ctx context.Context, credentialsJSON, folderID string) (*DriveClient, error) {
	if credentialsJSON == "" {
		return nil, fmt.Errorf("drive credentials must be provided")
	}

	jwtConfig, err := google.JWTConfigFromJSON([]byte(credentialsJSON), drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	if folderID == "" {
		folderID = "root"
	}
	return &DriveClient{srv: srv, folderID: folderID}, nil
}

// fileName flattens a key into a Drive file name.
func fileName(key string) string {
	return strings.ReplaceAll(strings.Trim(key, "/"), "/", "_")
}

func (d *DriveClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", d.folderID)
	if p := fileName(prefix); p != "" {
		q += fmt.Sprintf(" and name contains '%s'", strings.ReplaceAll(p, "'", "\\'"))
	}

	var out []ObjectInfo
	err := d.srv.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, modifiedTime, size)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
				out = append(out, ObjectInfo{Key: f.Name, Size: f.Size, LastModified: modified})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}
	return out, nil
}

func (d *DriveClient) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	file := &drive.File{
		Name:     fileName(key),
		Parents:  []string{d.folderID},
		MimeType: contentType,
	}
	if file.Name == "" {
		file.Name = path.Base(key)
	}

	_, err := d.srv.Files.Create(file).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Fields("id").
		Do()
	if err != nil {
		return fmt.Errorf("unable to upload %s: %w", key, err)
	}
	return nil
}
