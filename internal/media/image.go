// Package media validates reward item images and stores them on the
// configured media host.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest accepted upload
const MaxImageSize = 20 << 20

// Messages shown on the form for a rejected image
const (
	MessageInvalidType = "Please upload a valid image file (JPEG, PNG, WebP, or GIF)"
	MessageTooLarge    = "Image size must be less than 20MB"
)

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrUpload       = errors.New("failed to upload image")
)

// AllowedTypes are the accepted image content types
var AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// ImageError is a rejected image with a message meant for the form
type ImageError struct {
	Message string
}

func (e *ImageError) Error() string {
	return e.Message
}

func (e *ImageError) Unwrap() error {
	return ErrInvalidImage
}

// Image is a validated upload ready to be sent to the media host
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ValidateImage checks the declared content type and size of an upload.
// When content is given, its sniffed type must be an allowed image too.
func ValidateImage(declaredType string, size int64, content []byte) error {
	if !mimetype.EqualsAny(declaredType, AllowedTypes...) {
		return &ImageError{Message: MessageInvalidType}
	}
	if size > MaxImageSize {
		return &ImageError{Message: MessageTooLarge}
	}
	if content != nil && !mimetype.EqualsAny(mimetype.Detect(content).String(), AllowedTypes...) {
		return &ImageError{Message: MessageInvalidType}
	}
	return nil
}

// ReadImage validates a multipart file and reads it into memory
func ReadImage(fh *multipart.FileHeader) (*Image, error) {
	declared := fh.Header.Get("Content-Type")
	if err := ValidateImage(declared, fh.Size, nil); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(src, MaxImageSize+1)); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	data := buf.Bytes()
	if err := ValidateImage(declared, int64(len(data)), data); err != nil {
		return nil, err
	}

	return &Image{
		Filename:    fh.Filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

func sanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "image"
	}
	return name
}
