package mergesdk

import (
	"fmt"
	"net/http/cookiejar"

	"github.com/imroc/req/v3"
)

// SDK is the client for a MergeBox server
type SDK struct {
	client  *req.Client
	baseURL string
	Files   *FilesAPI
}

// New validates the config and creates a client. The client keeps a cookie jar
// for its whole lifetime because the server scopes the file list to a session.
func New(cfg *Config) (*SDK, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("sdk: cookie jar: %w", err)
	}

	client := newHTTPClient(cfg).SetCookieJar(jar)

	return &SDK{
		client:  client,
		baseURL: cfg.BaseURL,
		Files:   newFilesAPI(client),
	}, nil
}

// BaseURL returns the server the SDK talks to
func (s *SDK) BaseURL() string {
	return s.baseURL
}

// Close releases idle connections
func (s *SDK) Close() {
	s.client.GetClient().CloseIdleConnections()
}
