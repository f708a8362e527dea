package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/youruser/certapp/internal/metrics"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = 500 * time.Millisecond
)

// AssetLoadError reports an asset that could not be fetched or decoded
// within the allowed attempts.
type AssetLoadError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("load asset %s: failed after %d attempt(s): %v", e.Path, e.Attempts, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// Loader fetches and decodes assets, retrying with a fixed backoff.
type Loader struct {
	source   Source
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithAttempts sets the total number of attempts (minimum 1).
func WithAttempts(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.attempts = n
		}
	}
}

// WithBackoff sets the fixed wait between attempts.
func WithBackoff(d time.Duration) LoaderOption {
	return func(l *Loader) { l.backoff = d }
}

func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

func WithLoaderMetrics(m *metrics.Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader returns a loader reading from src, 3 attempts 500ms apart
// unless configured otherwise.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		source:   src,
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and decodes the asset at path. Success on a later attempt
// is indistinguishable from success on the first.
func (l *Loader) Load(ctx context.Context, path string) (image.Image, error) {
	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		img, err := l.loadOnce(ctx, path)
		l.metrics.IncAssetAttempt(err)
		if err == nil {
			return img, nil
		}
		lastErr = err
		l.logger.Warn("asset load failed", "path", path, "attempt", attempt, "error", err)
		if attempt == l.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &AssetLoadError{Path: path, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(l.backoff):
		}
	}
	return nil, &AssetLoadError{Path: path, Attempts: l.attempts, Err: lastErr}
}

func (l *Loader) loadOnce(ctx context.Context, path string) (image.Image, error) {
	data, err := l.source.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
