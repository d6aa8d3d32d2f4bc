package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"chapel-site/internal/domain/chat"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore persists uploaded media. storage.Client implements it.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

type MediaService struct {
	store    ObjectStore
	maxBytes int64
	log      *logger.Logger
	now      func() time.Time
}

func NewMediaService(store ObjectStore, maxUploadMB int, l *logger.Logger) *MediaService {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &MediaService{
		store:    store,
		maxBytes: int64(maxUploadMB) << 20,
		log:      orNopLogger(l),
		now:      time.Now,
	}
}

type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaObject struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores the file under media/<yyyy>/<mm>/<uuid><ext> and returns
// its public URL.
func (s *MediaService) Upload(ctx context.Context, actor chat.Actor, in UploadInput) (MediaObject, error) {
	if !actor.IsAdmin() {
		return MediaObject{}, chapel_errors.ErrForbidden
	}
	if s.store == nil {
		return MediaObject{}, chapel_errors.ErrServiceUnavailable
	}
	if in.Body == nil || in.Size <= 0 {
		return MediaObject{}, chapel_errors.ErrInvalidInput
	}
	if in.Size > s.maxBytes {
		return MediaObject{}, chapel_errors.ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(in.FileName))
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := s.now().UTC()
	key := fmt.Sprintf("media/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	if err := s.store.PutObject(ctx, key, contentType, in.Body, in.Size); err != nil {
		return MediaObject{}, fmt.Errorf("put object %s: %w", key, err)
	}

	s.log.InfoCtx(ctx, "media uploaded", zap.String("key", key), zap.Int64("size", in.Size))
	return MediaObject{
		Key:         key,
		URL:         s.store.FileURL(key),
		ContentType: contentType,
		Size:        in.Size,
	}, nil
}
