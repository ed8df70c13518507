// Package tus is a small client for the tus resumable upload protocol
// (creation, offset negotiation and PATCH transfer). Interrupted uploads
// resume from the offset the server reports.
package tus

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	ProtocolVersion  = "1.0.0"
	DefaultChunkSize = 8 << 20
	offsetMediaType  = "application/offset+octet-stream"
)

var (
	ErrOffsetMismatch = errors.New("tus: server offset does not match")
	ErrNoLocation     = errors.New("tus: creation response has no location")
)

// Progress is called after every chunk with the bytes stored so far.
type Progress func(sent, total int64)

type Client struct {
	http      *resty.Client
	chunkSize int64
}

type Option func(*Client)

// WithChunkSize sets the PATCH body size.
func WithChunkSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithHeaders adds headers to every request, e.g. CDN signatures.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.http.SetHeaders(headers)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetHeader("Tus-Resumable", ProtocolVersion).
			SetTimeout(2 * time.Minute),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create registers an upload of size bytes and returns its URL.
func (c *Client) Create(ctx context.Context, endpoint string, size int64, metadata map[string]string) (string, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Upload-Length", strconv.FormatInt(size, 10))
	if encoded := encodeMetadata(metadata); encoded != "" {
		req.SetHeader("Upload-Metadata", encoded)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("tus: create upload: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("tus: create upload: unexpected status %d", resp.StatusCode())
	}

	location := resp.Header().Get("Location")
	if location == "" {
		return "", ErrNoLocation
	}
	return resolve(endpoint, location)
}

// Offset asks the server how many bytes of the upload it already holds.
func (c *Client) Offset(ctx context.Context, uploadURL string) (int64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Cache-Control", "no-store").
		Head(uploadURL)
	if err != nil {
		return 0, fmt.Errorf("tus: head upload: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return 0, fmt.Errorf("tus: head upload: unexpected status %d", resp.StatusCode())
	}
	return parseOffset(resp.Header().Get("Upload-Offset"))
}

// Upload sends r to uploadURL starting at the offset the server reports.
// Calling it again after a failure resumes where the server left off.
func (c *Client) Upload(ctx context.Context, uploadURL string, r io.ReadSeeker, size int64, progress Progress) error {
	offset, err := c.Offset(ctx, uploadURL)
	if err != nil {
		return err
	}
	if offset > size {
		return ErrOffsetMismatch
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("tus: seek source: %w", err)
	}
	if progress != nil {
		progress(offset, size)
	}

	buf := make([]byte, c.chunkSize)
	for offset < size {
		n, err := io.ReadFull(r, buf[:min(c.chunkSize, size-offset)])
		if err != nil {
			return fmt.Errorf("tus: read source: %w", err)
		}

		next, err := c.patch(ctx, uploadURL, offset, buf[:n])
		if err != nil {
			return err
		}
		if next != offset+int64(n) {
			return ErrOffsetMismatch
		}
		offset = next
		if progress != nil {
			progress(offset, size)
		}
	}
	return nil
}

func (c *Client) patch(ctx context.Context, uploadURL string, offset int64, chunk []byte) (int64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", offsetMediaType).
		SetHeader("Upload-Offset", strconv.FormatInt(offset, 10)).
		SetBody(chunk).
		Patch(uploadURL)
	if err != nil {
		return 0, fmt.Errorf("tus: patch upload: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusNoContent, http.StatusOK:
	case http.StatusConflict:
		return 0, ErrOffsetMismatch
	default:
		return 0, fmt.Errorf("tus: patch upload: unexpected status %d", resp.StatusCode())
	}
	return parseOffset(resp.Header().Get("Upload-Offset"))
}

func parseOffset(raw string) (int64, error) {
	offset, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("tus: invalid Upload-Offset %q", raw)
	}
	return offset, nil
}

// encodeMetadata renders "key base64(value)" pairs in key order.
func encodeMetadata(metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+" "+base64.StdEncoding.EncodeToString([]byte(metadata[key])))
	}
	return strings.Join(pairs, ",")
}

func resolve(endpoint, location string) (string, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("tus: parse endpoint: %w", err)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("tus: parse location: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
