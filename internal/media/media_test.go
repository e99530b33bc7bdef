package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeninja-coin/admin-service/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		size     int64
		content  []byte
		message  string
	}{
		{name: "png", declared: "image/png", size: int64(len(pngHeader)), content: pngHeader},
		{name: "gif", declared: "image/gif", size: 10, content: []byte("GIF89a\x01\x00\x01\x00")},
		{name: "declared only", declared: "image/webp", size: 1024},
		{name: "pdf", declared: "application/pdf", size: 1024, message: MessageInvalidType},
		{name: "svg", declared: "image/svg+xml", size: 1024, message: MessageInvalidType},
		{name: "too large", declared: "image/jpeg", size: 25 << 20, message: MessageTooLarge},
		{name: "exactly 20MB", declared: "image/jpeg", size: MaxImageSize},
		{name: "text pretending to be png", declared: "image/png", size: 11, content: []byte("hello world"), message: MessageInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.declared, tt.size, tt.content)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidImage))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestReadImage(t *testing.T) {
	img, err := ReadImage(fileHeader(t, "belt.png", "image/png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "belt.png", img.Filename)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, pngHeader, img.Data)

	_, err = ReadImage(fileHeader(t, "notes.png", "image/png", []byte("plain text notes")))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = ReadImage(fileHeader(t, "doc.pdf", "application/pdf", []byte("%PDF-1.4")))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestReadImage_RejectsLargeFile(t *testing.T) {
	data := make([]byte, 25<<20)
	copy(data, pngHeader)

	_, err := ReadImage(fileHeader(t, "huge.png", "image/png", data))
	require.Error(t, err)
	assert.Equal(t, MessageTooLarge, err.Error())
}

func TestCloudinaryUploader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1_1/dojo/image/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "reward_items", r.FormValue("upload_preset"))

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, pngHeader, data)
			assert.Equal(t, "my_belt.png", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/dojo/image/upload/v1/belt.png"}`))
	}))
	defer server.Close()

	uploader := NewCloudinaryUploader(server.URL, "dojo", "reward_items", server.Client())
	url, err := uploader.Upload(context.Background(), &Image{Filename: "my belt.png", ContentType: "image/png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/dojo/image/upload/v1/belt.png", url)
}

func TestCloudinaryUploader_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Upload preset not found"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	uploader := NewCloudinaryUploader(server.URL, "dojo", "missing", server.Client())
	_, err := uploader.Upload(context.Background(), &Image{Filename: "a.png", ContentType: "image/png", Data: pngHeader})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpload)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSupabaseUploader(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"rewards/x"}`))
	}))
	defer server.Close()

	uploader := NewSupabaseUploader(server.URL+"/", "service-key", "rewards", server.Client())
	uploader.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

	url, err := uploader.Upload(context.Background(), &Image{Filename: "gi.png", ContentType: "image/png", Data: pngHeader})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(gotPath, "/storage/v1/object/rewards/reward-items/20260304-"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, "-gi.png"))
	object := strings.TrimPrefix(gotPath, "/storage/v1/object/rewards/")
	assert.Equal(t, server.URL+"/storage/v1/object/public/rewards/"+object, url)
}

func TestSupabaseUploader_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	uploader := NewSupabaseUploader(server.URL, "wrong", "rewards", server.Client())
	_, err := uploader.Upload(context.Background(), &Image{Filename: "gi.png", ContentType: "image/png", Data: pngHeader})
	assert.ErrorIs(t, err, ErrUpload)
}

func TestNewUploader(t *testing.T) {
	_, ok := NewUploader(config.MediaConfig{Provider: "cloudinary", CloudinaryCloudName: "dojo"}, nil).(*CloudinaryUploader)
	assert.True(t, ok)

	_, ok = NewUploader(config.MediaConfig{Provider: "Supabase", SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"}, nil).(*SupabaseUploader)
	assert.True(t, ok)

	_, err := NewUploader(config.MediaConfig{Provider: "supabase"}, nil).Upload(context.Background(), &Image{})
	assert.ErrorIs(t, err, ErrUpload)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "black_belt_.png", sanitizeFilename("black belt!.png"))
	assert.Equal(t, "image", sanitizeFilename("../"))
	assert.Equal(t, "image", sanitizeFilename(""))
}
