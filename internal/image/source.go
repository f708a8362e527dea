package imagepkg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// maxAssetBytes bounds a single downloaded asset.
const maxAssetBytes = 64 << 20

// ErrAssetTooLarge is returned for downloads over the size limit.
var ErrAssetTooLarge = errors.New("asset too large")

// Source fetches raw asset bytes by catalog path.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// NewSource picks an HTTP source for http(s) roots and a directory source
// otherwise.
func NewSource(root string, client *retryablehttp.Client) (Source, error) {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		return NewHTTPSource(root, client)
	}
	if root == "" {
		root = "."
	}
	return NewDirSource(root), nil
}

// DirSource reads assets from a file system.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource serves assets below root on the local disk.
func NewDirSource(root string) *DirSource {
	return &DirSource{fsys: os.DirFS(root)}
}

// NewFSSource serves assets from fsys.
func NewFSSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

func (s *DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(s.fsys, name)
}

// HTTPSource downloads assets relative to a base URL.
type HTTPSource struct {
	base   *url.URL
	client *retryablehttp.Client
	limit  int64
}

// NewHTTPSource parses base and uses client for requests.
func NewHTTPSource(base string, client *retryablehttp.Client) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("asset base url: %w", err)
	}
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = nil
	}
	return &HTTPSource{base: u, client: client, limit: maxAssetBytes}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	u := s.base.JoinPath(name).String()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.limit {
		return nil, fmt.Errorf("GET %s: %w (over %d bytes)", u, ErrAssetTooLarge, s.limit)
	}
	return data, nil
}
