package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

// Supported source types.
const (
	TypeCSV     = "csv"
	TypeHTTPCSV = "http_csv"
	TypeHTML    = "html"
	TypeStatic  = "static"
)

// Loader produces the VIN/year pairs for a source.
type Loader interface {
	Type() string
	Load(ctx context.Context, src Source) ([]vpic.VINYear, error)
}

// LoaderRegistry resolves the loader for a source.
type LoaderRegistry interface {
	LoaderFor(src Source) (Loader, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within sources.
type HTTPClient = httpclient.Client

type loaderRegistry struct {
	mu     sync.RWMutex
	byType map[string]Loader
}

// NewLoaderRegistry builds a registry keyed by each loader's Type.
func NewLoaderRegistry(loaders ...Loader) LoaderRegistry {
	reg := &loaderRegistry{byType: make(map[string]Loader, len(loaders))}
	for _, l := range loaders {
		if l == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(l.Type()))
		if key == "" {
			continue
		}
		reg.byType[key] = l
	}
	return reg
}

// LoaderFor selects the loader matching the source type.
func (r *loaderRegistry) LoaderFor(src Source) (Loader, error) {
	if r == nil {
		return nil, fmt.Errorf("loader registry is nil")
	}
	if strings.TrimSpace(src.ID) == "" {
		return nil, fmt.Errorf("source id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if l, ok := r.byType[strings.ToLower(strings.TrimSpace(src.Type))]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("no loader registered for source %q (type %q)", src.ID, src.Type)
}

// DefaultHTTPClient returns the resty-backed client used by remote loaders.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultLoaderRegistry wires up the built-in loaders.
func DefaultLoaderRegistry(client HTTPClient) LoaderRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return NewLoaderRegistry(
		NewCSVLoader(),
		NewHTTPCSVLoader(client),
		NewHTMLLoader(client),
		NewStaticLoader(),
	)
}

// download fetches a remote document and rejects non-200 answers.
func download(ctx context.Context, client HTTPClient, src Source) ([]byte, error) {
	resp, err := client.Get(ctx, src.Location, Headers(src))
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", src.ID, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("source %s returned status %d body: %s", src.ID, resp.StatusCode(), responseSnippet(body))
	}
	return body, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
