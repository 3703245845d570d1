package storage

// go generate: mockery --name AttachmentStore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// KeyPrefix is the logical folder every report attachment is stored under
const KeyPrefix = "reports"

// ErrUploadRejected is returned when the storage service answered but refused the blob
var ErrUploadRejected = errors.New("upload rejected by storage service")

// AttachmentStore stores a named binary blob and returns a reference to it
type AttachmentStore interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// AttachmentKey builds the storage key for a file that arrived at the given time:
// reports/<unix-millis>_<filename>. Any directory part of the client-supplied
// filename is dropped.
func AttachmentKey(arrived time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%s/%d_%s", KeyPrefix, arrived.UnixMilli(), name)
}
