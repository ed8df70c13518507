package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"coursehub-backend/internal/models"
	"coursehub-backend/pkg/logger"
)

var ErrVideoUploadDisabled = errors.New("video uploads are not configured")

// VideoCDNConfig describes the stream library that hosts lesson videos.
type VideoCDNConfig struct {
	BaseURL    string
	UploadURL  string
	PlayerBase string
	LibraryID  string
	APIKey     string
	TicketTTL  time.Duration
}

// VideoService creates video objects at the CDN and hands the client a
// signed ticket for the resumable upload. The file never passes through
// this server.
type VideoService struct {
	client *resty.Client
	config VideoCDNConfig
	now    func() time.Time
}

func NewVideoService(cfg VideoCDNConfig) *VideoService {
	if cfg.TicketTTL <= 0 {
		cfg.TicketTTL = 6 * time.Hour
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.PlayerBase = strings.TrimRight(cfg.PlayerBase, "/")

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("AccessKey", cfg.APIKey)

	return &VideoService{client: client, config: cfg, now: time.Now}
}

func (s *VideoService) Enabled() bool {
	return s != nil && s.config.LibraryID != "" && s.config.APIKey != "" && s.config.BaseURL != ""
}

type createVideoResponse struct {
	GUID  string `json:"guid"`
	Title string `json:"title"`
}

// CreateUpload registers a new video and signs an upload ticket for it.
func (s *VideoService) CreateUpload(ctx context.Context, actor Actor, req models.VideoUploadRequest) (*models.VideoUploadTicket, error) {
	if !s.Enabled() {
		return nil, ErrVideoUploadDisabled
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newValidationError("title is required")
	}

	var created createVideoResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("library", s.config.LibraryID).
		SetBody(map[string]string{"title": title}).
		SetResult(&created).
		Post("/library/{library}/videos")
	if err != nil {
		logger.Error(err, "Video CDN request failed", map[string]interface{}{"user_id": actor.ID})
		return nil, fmt.Errorf("video CDN request failed: %w", err)
	}
	if resp.IsError() {
		logger.Warn("Video CDN rejected create request", map[string]interface{}{
			"user_id": actor.ID,
			"status":  resp.StatusCode(),
			"body":    truncate(resp.String(), 200),
		})
		return nil, fmt.Errorf("video CDN returned status %d", resp.StatusCode())
	}
	if created.GUID == "" {
		return nil, errors.New("video CDN response did not include a video id")
	}

	expires := s.now().Add(s.config.TicketTTL).Unix()
	ticket := &models.VideoUploadTicket{
		Endpoint:  s.config.UploadURL,
		VideoID:   created.GUID,
		LibraryID: s.config.LibraryID,
		Signature: UploadSignature(s.config.LibraryID, s.config.APIKey, expires, created.GUID),
		ExpiresAt: expires,
		Title:     title,
	}
	if s.config.PlayerBase != "" {
		ticket.PlaybackURL = fmt.Sprintf("%s/%s/%s", s.config.PlayerBase, s.config.LibraryID, created.GUID)
	}

	logger.Info("Video upload ticket issued", map[string]interface{}{
		"user_id":  actor.ID,
		"video_id": created.GUID,
	})
	return ticket, nil
}

// UploadSignature is sha256(library_id + api_key + expires + video_id) in hex.
func UploadSignature(libraryID, apiKey string, expires int64, videoID string) string {
	sum := sha256.Sum256([]byte(libraryID + apiKey + strconv.FormatInt(expires, 10) + videoID))
	return hex.EncodeToString(sum[:])
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
