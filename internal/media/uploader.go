package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeninja-coin/admin-service/internal/config"
)

const (
	ProviderCloudinary = "cloudinary"
	ProviderSupabase   = "supabase"

	cloudinaryAPIBase = "https://api.cloudinary.com"
	uploadFolder      = "reward-items"
)

// Uploader stores an image on the media host and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, img *Image) (string, error)
}

// NewUploader builds the uploader of the configured provider. Without the
// provider's credentials every upload fails with ErrUpload.
func NewUploader(cfg config.MediaConfig, client *http.Client) Uploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return unconfigured{provider: ProviderSupabase}
		}
		return NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket, client)
	default:
		if cfg.CloudinaryCloudName == "" {
			return unconfigured{provider: ProviderCloudinary}
		}
		return NewCloudinaryUploader(cloudinaryAPIBase, cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, client)
	}
}

type unconfigured struct {
	provider string
}

func (u unconfigured) Upload(ctx context.Context, img *Image) (string, error) {
	return "", fmt.Errorf("%w: %s is not configured", ErrUpload, u.provider)
}

// CloudinaryUploader sends unsigned uploads through an upload preset
type CloudinaryUploader struct {
	baseURL   string
	cloudName string
	preset    string
	client    *http.Client
}

func NewCloudinaryUploader(baseURL, cloudName, preset string, client *http.Client) *CloudinaryUploader {
	return &CloudinaryUploader{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cloudName: cloudName,
		preset:    preset,
		client:    client,
	}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, img *Image) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", sanitizeFilename(img.Filename))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := form.WriteField("upload_preset", u.preset); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", u.baseURL, url.PathEscape(u.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: invalid response: %v", ErrUpload, err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("%w: response has no secure_url", ErrUpload)
	}
	return result.SecureURL, nil
}

// SupabaseUploader writes objects into a public storage bucket
type SupabaseUploader struct {
	projectURL string
	key        string
	bucket     string
	client     *http.Client
	now        func() time.Time
}

func NewSupabaseUploader(projectURL, key, bucket string, client *http.Client) *SupabaseUploader {
	return &SupabaseUploader{
		projectURL: strings.TrimRight(projectURL, "/"),
		key:        key,
		bucket:     bucket,
		client:     client,
		now:        time.Now,
	}
}

func (u *SupabaseUploader) Upload(ctx context.Context, img *Image) (string, error) {
	object := u.objectName(img.Filename)
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", u.projectURL, u.bucket, object)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(img.Data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Authorization", "Bearer "+u.key)
	req.Header.Set("Content-Type", img.ContentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.projectURL, u.bucket, object), nil
}

// objectName is unique per upload and safe to use in a URL path
func (u *SupabaseUploader) objectName(filename string) string {
	return fmt.Sprintf("%s/%s-%s-%s",
		uploadFolder, u.now().UTC().Format("20060102"), uuid.NewString(), sanitizeFilename(filename))
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode, strings.TrimSpace(string(body)))
}
