package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"

	"pharma-catalog/internal/imaging"
)

var ErrNotConfigured = errors.New("image storage is not configured")

// Uploader stores one prepared file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f imaging.File) (string, error)
}

// Cloudinary uploads with an unsigned upload preset, so no API secret lives
// on this server.
type Cloudinary struct {
	cloudName  string
	preset     string
	folder     string
	endpoint   string
	httpClient *http.Client
	newID      func() string
}

func NewCloudinary(cloudName, preset, folder string) (*Cloudinary, error) {
	if cloudName == "" || preset == "" {
		return nil, ErrNotConfigured
	}
	gen, err := nanoid.Standard(12)
	if err != nil {
		return nil, err
	}
	return &Cloudinary{
		cloudName:  cloudName,
		preset:     preset,
		folder:     folder,
		endpoint:   fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cloudName),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		newID:      gen,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Cloudinary) Upload(ctx context.Context, f imaging.File) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("upload_preset", c.preset)
	_ = w.WriteField("public_id", c.publicID(f.Name))
	if c.folder != "" {
		_ = w.WriteField("folder", c.folder)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("upload %s: read response: %w", f.Name, err)
	}

	var out uploadResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("upload %s: status %d: %s", f.Name, resp.StatusCode, msg)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("upload %s: response has no secure_url", f.Name)
	}
	return out.SecureURL, nil
}

// publicID is the sanitized base name plus a random suffix so re-uploads of
// the same file never overwrite each other.
func (c *Cloudinary) publicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + "_" + c.newID()
}
