// Package vpic builds and sends requests to the NHTSA vPIC vehicle API.
//
// The client never parses or classifies responses; it returns the raw transport
// response. Flatten and DecodeBatchResults help with the common JSON shapes and
// CheckStatus turns non-2xx answers into errors when callers want that.
package vpic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
)

// DefaultBaseURL is the public vPIC API root.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/"

const formatField = "format"

// Format is the response format requested from the service.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name. An empty name yields FormatJSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatXML, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported response format %q", s)
	}
}

// Config controls a Client. It is copied at construction and never mutated.
type Config struct {
	BaseURL string
	Format  Format
	// Headers are sent verbatim with every request.
	Headers map[string]string
}

// Request is a fully resolved call. URL carries no query string.
type Request struct {
	Operation Operation
	Method    string
	URL       string
	Query     Params
	Form      Params
}

// FullURL returns URL with the encoded query appended.
func (r Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Query.Encode()
}

// Client issues vPIC requests through an injected transport. It holds no mutable
// state and is safe for concurrent use.
type Client struct {
	baseURL   string
	format    Format
	headers   map[string]string
	transport httpclient.Client
}

// NewClient validates cfg and returns a Client. A nil transport falls back to a
// resty client without a timeout.
func NewClient(cfg Config, transport httpclient.Client) (*Client, error) {
	format, err := ParseFormat(string(cfg.Format))
	if err != nil {
		return nil, err
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	if transport == nil {
		transport = httpclient.NewRestyClient(0)
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL:   base,
		format:    format,
		headers:   headers,
		transport: transport,
	}, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Format returns the format forced onto every request.
func (c *Client) Format() Format { return c.format }

// BuildRequest resolves op against the endpoint table without sending anything.
func (c *Client) BuildRequest(op Operation, args Args) (Request, error) {
	ep, ok := endpoints[op]
	if !ok {
		return Request{}, &InvalidArgumentError{Operation: op, Reason: "unknown operation"}
	}

	path, params, err := ep.resolve(op, args)
	if err != nil {
		return Request{}, err
	}

	req := c.newRequest(ep.method, path, params)
	req.Operation = op
	return req, nil
}

// Call builds and sends op. Transport errors are returned unwrapped.
func (c *Client) Call(ctx context.Context, op Operation, args Args) (httpclient.Response, error) {
	req, err := c.BuildRequest(op, args)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Get sends a GET to servicePath (relative to the base URL). The configured
// format overwrites any format entry in params.
func (c *Client) Get(ctx context.Context, servicePath string, params Params) (httpclient.Response, error) {
	return c.Do(ctx, c.newRequest(http.MethodGet, servicePath, params))
}

// Post sends a form-encoded POST to servicePath. The configured format overwrites
// any format entry in data.
func (c *Client) Post(ctx context.Context, servicePath string, data Params) (httpclient.Response, error) {
	return c.Do(ctx, c.newRequest(http.MethodPost, servicePath, data))
}

// Do sends a prepared request.
func (c *Client) Do(ctx context.Context, req Request) (httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch req.Method {
	case http.MethodGet:
		return c.transport.Get(ctx, req.FullURL(), c.headers)
	case http.MethodPost:
		return c.transport.PostForm(ctx, req.FullURL(), req.Form.Encode(), c.headers)
	default:
		return nil, &InvalidArgumentError{Operation: req.Operation, Reason: fmt.Sprintf("unsupported method %q", req.Method)}
	}
}

// newRequest merges params with the forced format field. GET fields go to the
// query string, POST fields to the form body.
func (c *Client) newRequest(method, servicePath string, params Params) Request {
	fields := params.Clone()
	fields.Set(formatField, string(c.format))

	req := Request{
		Method: method,
		URL:    c.baseURL + strings.TrimPrefix(servicePath, "/"),
	}
	if method == http.MethodPost {
		req.Form = fields
	} else {
		req.Query = fields
	}
	return req
}
