package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Source is a datasource.Source that downloads a URL.
type Source struct {
	client *Client
	url    string
}

// NewSource binds client to url.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// Name returns the URL.
func (s *Source) Name() string { return s.url }

// Open performs the GET and returns the body. Any status other than 200 is an
// error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", s.url, resp.Status)
	}
	return resp.Body, nil
}
