// Package imagehost uploads images to the hosted image service and
// returns their public URL.
package imagehost

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/config"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/logger"
	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// Uploader is what the views need from an image host.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Cloudinary is an unsigned-preset uploader.
type Cloudinary struct {
	rc        *resty.Client
	cloudName string
	preset    string
}

// NewCloudinary creates an uploader for cloudName using an unsigned
// upload preset.
func NewCloudinary(baseURL, cloudName, preset string, timeout time.Duration) *Cloudinary {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout)
	return &Cloudinary{rc: rc, cloudName: cloudName, preset: preset}
}

// FromConfig builds the uploader from the imagehost.* keys.
func FromConfig() *Cloudinary {
	return NewCloudinary(
		config.GetString("imagehost.base_url"),
		config.GetString("imagehost.cloud_name"),
		config.GetString("imagehost.upload_preset"),
		config.GetSeconds("api.timeout"),
	)
}

type uploadResponse struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// CheckImage validates that path names a readable image file.
func CheckImage(path string) error {
	if strings.TrimSpace(path) == "" {
		return clierrors.ValidationError("image", "is required")
	}
	if !allowedExt[strings.ToLower(filepath.Ext(path))] {
		return clierrors.ValidationError("image", "must be a jpg, png, gif or webp file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return clierrors.ValidationError("image", "file not found: "+path)
	}
	if info.IsDir() {
		return clierrors.ValidationError("image", path+" is a directory")
	}
	return nil
}

// Upload sends the file at path and returns its hosted URL.
func (c *Cloudinary) Upload(ctx context.Context, path string) (string, error) {
	if err := CheckImage(path); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return c.UploadReader(ctx, filepath.Base(path), f)
}

// UploadReader sends r under name and returns its hosted URL.
func (c *Cloudinary) UploadReader(ctx context.Context, name string, r io.Reader) (string, error) {
	logger.Debug("Uploading image", "name", name, "cloud", c.cloudName)

	resp, err := c.rc.R().
		SetContext(ctx).
		SetFileReader("file", name, r).
		SetFormData(map[string]string{
			"upload_preset": c.preset,
			"cloud_name":    c.cloudName,
		}).
		Post("/" + c.cloudName + "/image/upload")
	if err := api.CheckResponse(resp, err); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	var out uploadResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	url := out.SecureURL
	if url == "" {
		url = out.URL
	}
	if url == "" {
		return "", fmt.Errorf("upload image: response carried no url")
	}

	logger.Info("Image uploaded", "public_id", out.PublicID)
	return url, nil
}
