package services

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"codenook/internal/config"
)

// UploadResult describes an image stored on the media host.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
}

func (r *UploadResult) url() string {
	if r == nil {
		return ""
	}
	return r.URL
}

// ImageUploader stores images on an external media host.
type ImageUploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error)
}

// CheckImage accepts image/* content types up to max bytes.
func CheckImage(contentType string, size, max int64) error {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return validationf("only image files are allowed")
	}
	if size <= 0 {
		return validationf("the image is empty")
	}
	if max > 0 && size > max {
		return validationf("the image must be at most %d MB", max>>20)
	}
	return nil
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CloudinaryUploader performs signed uploads against the Cloudinary upload API.
type CloudinaryUploader struct {
	cfg    config.CloudinaryConfig
	client *http.Client
	now    func() time.Time
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig) *CloudinaryUploader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudinary.com"
	}
	return &CloudinaryUploader{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error) {
	if !u.cfg.Enabled() {
		return nil, ErrMediaDisabled
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(u.now().Unix(), 10),
	}
	if u.cfg.Folder != "" {
		params["folder"] = u.cfg.Folder
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.WriteField("api_key", u.cfg.APIKey); err != nil {
		return nil, fmt.Errorf("write field api_key: %w", err)
	}
	if err := writer.WriteField("signature", Sign(params, u.cfg.APISecret)); err != nil {
		return nil, fmt.Errorf("write field signature: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", strings.TrimRight(u.cfg.BaseURL, "/"), u.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	var out cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, msg)
	}

	return &UploadResult{
		URL:      out.SecureURL,
		PublicID: out.PublicID,
		Width:    out.Width,
		Height:   out.Height,
		Format:   out.Format,
	}, nil
}

// Sign computes the Cloudinary request signature: the SHA-1 hex digest of the
// params sorted by key and joined as k=v pairs with "&", followed by the secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
