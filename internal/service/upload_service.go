package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/storage"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/media"
	"coursehub-backend/pkg/utils"
	"coursehub-backend/pkg/validator"
)

const (
	UploadKindImage    = "image"
	UploadKindDocument = "document"
	UploadKindVideo    = "video"
)

var (
	ErrUploadTooLarge      = errors.New("file size exceeds maximum allowed size")
	ErrUploadTypeForbidden = errors.New("file type not allowed")
	ErrUploadEmpty         = errors.New("file is required")
)

type UploadService struct {
	store        storage.Store
	maxSize      int64
	videoMaxSize int64
	now          func() time.Time
}

func NewUploadService(store storage.Store, maxSize, videoMaxSize int64) *UploadService {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if videoMaxSize <= 0 {
		videoMaxSize = 1024 * 1024 * 1024
	}
	return &UploadService{store: store, maxSize: maxSize, videoMaxSize: videoMaxSize, now: time.Now}
}

func (s *UploadService) limit(kind string) int64 {
	if kind == UploadKindVideo {
		return s.videoMaxSize
	}
	return s.maxSize
}

func allowedTypes(kind string) ([]string, error) {
	switch kind {
	case UploadKindImage:
		return validator.ImageContentTypes, nil
	case UploadKindDocument:
		return append(append([]string{}, validator.DocumentContentTypes...), validator.ImageContentTypes...), nil
	case UploadKindVideo:
		return validator.VideoContentTypes, nil
	default:
		return nil, newValidationError("unknown upload kind %q", kind)
	}
}

// UploadFile stores a lesson asset. The MIME type is sniffed from the
// content; the client supplied header is ignored.
func (s *UploadService) UploadFile(ctx context.Context, kind string, file *multipart.FileHeader) (*curriculum.Attachment, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("upload service is not configured")
	}
	if file == nil {
		return nil, ErrUploadEmpty
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = UploadKindDocument
	}
	allowed, err := allowedTypes(kind)
	if err != nil {
		return nil, err
	}
	if !validator.ValidateFileSize(file.Size, s.limit(kind)) {
		if file.Size <= 0 {
			return nil, ErrUploadEmpty
		}
		return nil, ErrUploadTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return s.persist(ctx, kind, file.Filename, src, file.Size, allowed)
}

func (s *UploadService) persist(ctx context.Context, kind, filename string, src io.ReadSeeker, size int64, allowed []string) (*curriculum.Attachment, error) {
	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect upload: %w", err)
	}
	contentType := detected.String()
	if !validator.ValidateContentType(contentType, allowed) {
		logger.Warn("Rejected upload", map[string]interface{}{"kind": kind, "mime_type": contentType})
		return nil, ErrUploadTypeForbidden
	}

	attachment := &curriculum.Attachment{
		Name:     displayName(filename),
		MimeType: strings.SplitN(contentType, ";", 2)[0],
		Size:     size,
	}

	if kind == UploadKindVideo {
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		if duration, err := media.Duration(src); err == nil {
			attachment.DurationSeconds = media.Seconds(duration)
		} else {
			logger.Debug("Video duration unavailable", map[string]interface{}{"error": err.Error()})
		}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	key := s.objectKey(kind, filename, detected.Extension())
	url, err := s.store.Put(ctx, key, src, size, attachment.MimeType)
	if err != nil {
		logger.Error(err, "Failed to store upload", map[string]interface{}{"kind": kind, "backend": s.store.Name()})
		return nil, err
	}
	attachment.URL = url

	logger.Info("File uploaded", map[string]interface{}{
		"kind":      kind,
		"key":       key,
		"mime_type": attachment.MimeType,
		"size":      size,
	})
	return attachment, nil
}

func (s *UploadService) objectKey(kind, filename, ext string) string {
	base := utils.GenerateSlug(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "file"
	}
	if len(base) > 60 {
		base = strings.Trim(base[:60], "-")
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	return fmt.Sprintf("%ss/%s/%s-%s%s", kind, s.now().UTC().Format("2006/01"), base, uuid.NewString()[:8], ext)
}

func displayName(filename string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return validator.SanitizeFilename(name)
}
