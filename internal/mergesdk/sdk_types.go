package mergesdk

import (
	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"github.com/mergebox/mergebox/internal/utils"
	"github.com/mergebox/mergebox/internal/version"
)

const (
	HeaderUserAgent = "User-Agent"
	HeaderVersion   = "X-MergeBox-Version"
	HeaderDeviceID  = "X-MergeBox-Device-Id"
	HeaderRequestID = "X-Request-Id"
)

// newHTTPClient returns a req client with the common headers and codecs set.
// Retries stay off: a failed action is reported once and the user retries.
func newHTTPClient(cfg *Config) *req.Client {
	client := req.C().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetUserAgent(version.UserAgent()).
		SetCommonHeader(HeaderVersion, version.Version).
		SetCommonHeader(HeaderDeviceID, utils.HWID).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal).
		OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
			r.SetHeader(HeaderRequestID, uuid.NewString())
			return nil
		})

	if cfg.Debug {
		client.EnableDumpAll()
	}

	return client
}
