package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dvega/docuvec/internal/filestore"
	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
)

// FileService stores tenant documents and triggers vector cleanup when
// they are deleted. Objects live under tenants/<orgId>/, which is also
// the only isolation boundary the vector store knows about.
type FileService struct {
	store     filestore.Store
	vectorize *VectorizeService
}

func NewFileService(store filestore.Store, vectorize *VectorizeService) *FileService {
	return &FileService{store: store, vectorize: vectorize}
}

func (s *FileService) Upload(ctx context.Context, ident Identity, fileName string, r io.Reader, size int64, contentType string) (string, error) {
	if ident.UserID == "" || ident.OrgID == "" {
		return "", pkgerr.ErrUnauthorized
	}
	name := sanitizeFileName(fileName)
	if name == "" {
		return "", fmt.Errorf("%w: file name is required", pkgerr.ErrInvalidRequest)
	}
	key := fmt.Sprintf("tenants/%s/%s_%s", ident.OrgID, randomHex(8), name)
	if err := s.store.Save(ctx, key, r, size, contentType); err != nil {
		logutil.GetLogger(ctx).Error("file upload failed", zap.Error(err), zap.String("key", key))
		return "", err
	}
	logutil.GetLogger(ctx).Info("file uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int64("size", size),
	)
	return key, nil
}

// Delete removes the stored object, then best-effort removes its vectors.
// Cleanup problems never surface to the caller.
func (s *FileService) Delete(ctx context.Context, ident Identity, filePath string) error {
	if ident.UserID == "" || ident.OrgID == "" {
		return pkgerr.ErrUnauthorized
	}
	if !strings.HasPrefix(filePath, "tenants/"+ident.OrgID+"/") {
		return pkgerr.ErrUnauthorized
	}
	if err := s.store.Delete(ctx, filePath); err != nil {
		logutil.GetLogger(ctx).Error("file deletion failed", zap.Error(err), zap.String("file_path", filePath))
		return fmt.Errorf("%w: %v", pkgerr.ErrFileNotFound, err)
	}
	s.vectorize.RemoveFileVectors(ctx, filePath)
	return nil
}

func sanitizeFileName(fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func randomHex(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
