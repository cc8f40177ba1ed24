package mergesdk

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/imroc/req/v3"
)

// ProgressCallback reports bytes of the multipart body sent so far
type ProgressCallback func(sent int64, total int64)

// UploadFile is one file selected for upload. Open is called once, when the
// request body is written.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FileFromPath describes a file on disk. The part content type is sniffed from
// the file's leading bytes.
func FileFromPath(path string) (UploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return UploadFile{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return UploadFile{}, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return UploadFile{}, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(path); err == nil {
		contentType = mtype.String()
	}

	return UploadFile{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileFromBytes describes an in-memory file
func FileFromBytes(name string, data []byte) UploadFile {
	return UploadFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: mimetype.Detect(data).String(),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// TotalSize sums the sizes of files
func TotalSize(files []UploadFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// uploadTracker folds req's per-file progress into one running total.
// Files sharing a name share a slot, which only under-reports.
type uploadTracker struct {
	mu       sync.Mutex
	sent     map[string]int64
	total    int64
	callback ProgressCallback
}

func newUploadTracker(files []UploadFile, callback ProgressCallback) *uploadTracker {
	return &uploadTracker{
		sent:     make(map[string]int64, len(files)),
		total:    TotalSize(files),
		callback: callback,
	}
}

func (t *uploadTracker) onUpload(info req.UploadInfo) {
	t.mu.Lock()
	t.sent[info.FileName] = info.UploadedSize
	var sent int64
	for _, n := range t.sent {
		sent += n
	}
	t.mu.Unlock()

	if sent > t.total {
		sent = t.total
	}
	t.callback(sent, t.total)
}
