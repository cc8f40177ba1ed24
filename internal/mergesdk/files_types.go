package mergesdk

import "io"

const (
	// FieldFiles is the repeated multipart field carrying the uploaded files
	FieldFiles = "files[]"

	// MergedFileName is the name the merged document is saved under
	MergedFileName = "merged.pdf"
)

// FileRecord is one uploaded file as the server knows it
type FileRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ===================================================================================================

// UploadParams represents the parameters for uploading files
type UploadParams struct {
	Files    []UploadFile
	Callback ProgressCallback
}

// UploadResponse represents the response from a successful upload
type UploadResponse struct {
	Message string       `json:"message"`
	Files   []FileRecord `json:"files"`
}

// ===================================================================================================

// MessageResponse is the body of a successful remove or clear
type MessageResponse struct {
	Message string `json:"message"`
}

// ===================================================================================================

// MergeResult is a successful merge. The caller owns Body and must close it.
type MergeResult struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64  // -1 when unknown
	FileName      string // from Content-Disposition, MergedFileName if absent
}
