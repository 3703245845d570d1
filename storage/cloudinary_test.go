package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/civic-report-api/config"
)

type fakeUploader struct {
	params uploader.UploadParams
	body   []byte
	result *uploader.UploadResult
	err    error
}

func (f *fakeUploader) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = params
	if r, ok := file.(io.Reader); ok {
		f.body, _ = io.ReadAll(r)
	}
	return f.result, f.err
}

func TestAttachmentKey(t *testing.T) {
	arrived := time.UnixMilli(1700000000123)

	assert.Equal(t, "reports/1700000000123_pothole.jpg", AttachmentKey(arrived, "pothole.jpg"))
	assert.Equal(t, "reports/1700000000123_pothole.jpg", AttachmentKey(arrived, "../../etc/pothole.jpg"))
	assert.Equal(t, "reports/1700000000123_img.png", AttachmentKey(arrived, `C:\Users\me\img.png`))
	assert.Equal(t, "reports/1700000000123_upload", AttachmentKey(arrived, ""))
}

func TestNewCloudinaryStoreRequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryStore(&config.Config{CloudinaryCloudName: "demo"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingConfig))
	assert.Contains(t, err.Error(), "CLOUDINARY_API_KEY")
}

func TestCloudinaryStore_Store(t *testing.T) {
	up := &fakeUploader{result: &uploader.UploadResult{PublicID: "reports/1_a.jpg"}}
	s := &CloudinaryStore{upload: up}

	ref, err := s.Store(context.Background(), "reports/1_a.jpg", []byte("jpeg-bytes"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "reports/1_a.jpg", ref)
	assert.Equal(t, "reports/1_a.jpg", up.params.PublicID)
	assert.Equal(t, "image", up.params.ResourceType)
	assert.Equal(t, []byte("jpeg-bytes"), up.body)
}

func TestCloudinaryStore_StoreErrors(t *testing.T) {
	s := &CloudinaryStore{upload: &fakeUploader{err: errors.New("connection reset")}}
	_, err := s.Store(context.Background(), "reports/1_a.jpg", nil, "image/jpeg")
	assert.EqualError(t, err, "upload reports/1_a.jpg: connection reset")

	s = &CloudinaryStore{upload: &fakeUploader{result: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}}}
	_, err = s.Store(context.Background(), "reports/1_a.jpg", nil, "image/jpeg")
	assert.True(t, errors.Is(err, ErrUploadRejected))
}

func TestResourceType(t *testing.T) {
	assert.Equal(t, "image", resourceType("image/png"))
	assert.Equal(t, "video", resourceType("video/mp4"))
	assert.Equal(t, "raw", resourceType("application/pdf"))
	assert.Equal(t, "auto", resourceType(""))
}
