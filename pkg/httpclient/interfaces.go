package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Transport failures are returned as errors; non-2xx statuses are not.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	PostForm(ctx context.Context, url, body string, headers map[string]string) (Response, error)
}
