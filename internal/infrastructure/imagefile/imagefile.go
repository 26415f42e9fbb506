// Package imagefile turns dropped or pasted image files into strings an ad can reference.
package imagefile

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const genericMIME = "application/octet-stream"

var ErrRead = errors.New("failed to read image file")

type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Reader produces the image reference stored in Ad.ImageURL.
type Reader interface {
	Read(ctx context.Context, f File) (string, error)
}

// DataURLReader embeds the file as a base64 data URL. MaxBytes <= 0 means no limit.
type DataURLReader struct {
	MaxBytes int64
}

func NewDataURLReader(maxBytes int64) *DataURLReader {
	return &DataURLReader{MaxBytes: maxBytes}
}

func (r *DataURLReader) Read(ctx context.Context, f File) (string, error) {
	data, err := ReadAll(ctx, f, r.MaxBytes)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(DetectMIME(f.ContentType, data), data), nil
}

// ReadAll reads the whole body once, enforcing the size limit.
func ReadAll(ctx context.Context, f File, maxBytes int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if f.Body == nil {
		return nil, fmt.Errorf("%w: %s has no content", ErrRead, f.Name)
	}

	body := f.Body
	if maxBytes > 0 {
		body = io.LimitReader(f.Body, maxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, f.Name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrRead, f.Name, maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return data, nil
}

func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DetectMIME prefers a specific declared type, then content sniffing, then image decoders.
func DetectMIME(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != genericMIME {
		return mt
	}

	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "image/" + format
	}

	if mt, _, err := mime.ParseMediaType(sniffed); err == nil && len(data) > 0 {
		return mt
	}
	return genericMIME
}

func IsImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
