package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/config"
)

type assetUploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryStore keeps report attachments in a Cloudinary cloud
type CloudinaryStore struct {
	upload assetUploader
}

// NewCloudinaryStore builds a store from the Cloudinary credentials in conf.
// The API secret stays server side; it is only used to sign upload requests.
func NewCloudinaryStore(conf *config.Config) (*CloudinaryStore, error) {
	if err := conf.Require("CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET"); err != nil {
		return nil, err
	}
	cld, err := cloudinary.NewFromParams(conf.CloudinaryCloudName, conf.CloudinaryAPIKey, conf.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &CloudinaryStore{upload: &cld.Upload}, nil
}

// Store uploads data under key and returns the stored public id
func (s *CloudinaryStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	res, err := s.upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     key,
		ResourceType: resourceType(contentType),
		Overwrite:    api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("%w: %s: %s", ErrUploadRejected, key, res.Error.Message)
	}

	zap.S().Debugw("attachment stored", "key", key, "publicId", res.PublicID, "bytes", len(data))
	if res.PublicID == "" {
		return key, nil
	}
	return res.PublicID, nil
}

// resourceType maps the declared content type onto Cloudinary's asset kinds
func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case contentType == "":
		return "auto"
	default:
		return "raw"
	}
}
