package mergesdk

import (
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/imroc/req/v3"
)

const (
	pathUpload = "/upload"
	pathRemove = "/remove/{fileId}"
	pathClear  = "/clear"
	pathMerge  = "/merge"

	progressInterval = 200 * time.Millisecond
)

// FilesAPI covers the upload, remove, clear and merge endpoints
type FilesAPI struct {
	client *req.Client
}

func newFilesAPI(client *req.Client) *FilesAPI {
	return &FilesAPI{
		client: client,
	}
}

// Upload sends every file in one multipart request under the `files[]` field.
// No validation happens here; the server decides what it accepts.
func (f *FilesAPI) Upload(ctx context.Context, params *UploadParams) (*UploadResponse, error) {
	uploads := make([]req.FileUpload, 0, len(params.Files))
	for _, file := range params.Files {
		uploads = append(uploads, req.FileUpload{
			ParamName:      FieldFiles,
			FileName:       file.Name,
			GetFileContent: file.Open,
			FileSize:       file.Size,
			ContentType:    file.ContentType,
		})
	}

	var apiResp UploadResponse
	r := f.client.R().
		SetContext(ctx).
		EnableForceMultipart().
		SetFileUpload(uploads...).
		SetSuccessResult(&apiResp)

	if params.Callback != nil {
		tracker := newUploadTracker(params.Files, params.Callback)
		r.SetUploadCallbackWithInterval(tracker.onUpload, progressInterval)
	}

	resp, err := r.Post(pathUpload)
	if err := handleAPIError(resp, err, "upload"); err != nil {
		return nil, err
	}

	return &apiResp, nil
}

// Remove deletes one file from the server side list
func (f *FilesAPI) Remove(ctx context.Context, fileID string) (*MessageResponse, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("fileId", fileID).
		Post(pathRemove)

	if err := handleAPIError(resp, err, "remove"); err != nil {
		return nil, err
	}

	return decodeMessage(resp), nil
}

// Clear deletes every file in the session
func (f *FilesAPI) Clear(ctx context.Context) (*MessageResponse, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Post(pathClear)

	if err := handleAPIError(resp, err, "clear"); err != nil {
		return nil, err
	}

	return decodeMessage(resp), nil
}

// decodeMessage reads the optional message of a 2xx remove or clear. The
// status alone confirms the change, so an empty or odd body is not an error.
func decodeMessage(resp *req.Response) *MessageResponse {
	var msg MessageResponse
	if body := resp.Bytes(); len(body) > 0 {
		if err := jsonUnmarshal(body, &msg); err != nil {
			msg = MessageResponse{}
		}
	}
	return &msg
}

// Merge asks the server to combine all session files. On success the PDF body
// is streamed back unread; on failure the JSON error body is decoded.
func (f *FilesAPI) Merge(ctx context.Context) (*MergeResult, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Post(pathMerge)

	if err != nil {
		if resp != nil && resp.Response != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("http request error: merge: %w", err)
	}

	if !resp.IsSuccessState() {
		defer resp.Body.Close()
		return nil, fmt.Errorf("merge: %w", decodeAPIError(resp))
	}

	return &MergeResult{
		Body:          resp.Body,
		ContentType:   resp.GetContentType(),
		ContentLength: resp.ContentLength,
		FileName:      attachmentName(resp.GetHeader("Content-Disposition")),
	}, nil
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return MergedFileName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return MergedFileName
	}
	return params["filename"]
}
